package engine

import (
	"encoding/json"
	"fmt"

	"github.com/nkprasad12/dnd/pkg/api"
)

// DefaultTokenSpeed подставляется фишкам, у которых скорость не задана.
// Исторический дефолт клиента.
const DefaultTokenSpeed = 6

// EncodeBoard сериализует доску в байты для хранилища.
// Формат - тот же JSON, что ходит по сети, так что файлы из старых
// инсталляций читаются без миграции.
func EncodeBoard(board *api.Board) ([]byte, error) {
	data, err := json.Marshal(board)
	if err != nil {
		return nil, fmt.Errorf("encode board %s: %w", board.ID, err)
	}
	return data, nil
}

// DecodeBoard разбирает доску из байтов хранилища.
// Частично заполненные доски исправляются (см. FillBoardDefaults),
// неисправимые - возвращают ошибку.
func DecodeBoard(data []byte) (*api.Board, error) {
	var board api.Board
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	FillBoardDefaults(&board)
	if err := board.Validate(); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return &board, nil
}

// FillBoardDefaults дозаполняет отсутствующие поля доски дефолтами.
func FillBoardDefaults(board *api.Board) {
	if board.Tokens == nil {
		board.Tokens = []api.Token{}
	}
	for i := range board.Tokens {
		if board.Tokens[i].Speed == 0 {
			board.Tokens[i].Speed = DefaultTokenSpeed
		}
	}
	if board.FogOfWar == nil {
		board.FogOfWar = [][]bool{}
	}
}

// EmptyBoard возвращает пустую доску-заглушку для неизвестного ID.
// Отсутствие доски - не ошибка (см. board-get-request).
func EmptyBoard(id string) *api.Board {
	return &api.Board{
		ID:       id,
		Tokens:   []api.Token{},
		FogOfWar: [][]bool{},
	}
}
