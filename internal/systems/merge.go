package systems

import (
	"github.com/sirupsen/logrus"

	"github.com/nkprasad12/dnd/pkg/api"
	"github.com/nkprasad12/dnd/pkg/logger"
)

// MergeBoard вливает дифф в каноническую доску и возвращает новое состояние.
// Функция тотальна: отсутствующие поля диффа означают "без изменений",
// ошибки невозможны. Исходная доска не модифицируется.
//
// Порядок фишек в результате детерминирован: сначала NewTokens,
// затем выжившие фишки текущей доски в исходном порядке.
func MergeBoard(current api.Board, diff api.BoardDiff) api.Board {
	if diff.ID != current.ID {
		// Ошибка вызывающего кода. ID доски дифф переписать не может.
		logger.Log.WithFields(logrus.Fields{
			"board_id": current.ID,
			"diff_id":  diff.ID,
		}).Warn("Board diff id does not match board id")
	}

	merged := api.Board{
		ID:          current.ID,
		Name:        current.Name,
		ImageSource: current.ImageSource,
		TileSize:    current.TileSize,
	}
	if diff.Name != nil {
		merged.Name = *diff.Name
	}
	if diff.ImageSource != nil {
		merged.ImageSource = *diff.ImageSource
	}
	if diff.TileSize != nil {
		merged.TileSize = *diff.TileSize
	}

	merged.Tokens = mergeTokenList(current.Tokens, diff)
	merged.FogOfWar = mergeFogOfWar(current.FogOfWar, diff.FogOfWarDiffs)
	return merged
}

// MergeToken применяет частичное обновление к одной фишке.
func MergeToken(token api.Token, diff api.TokenDiff) api.Token {
	if diff.ID != token.ID {
		logger.Log.WithFields(logrus.Fields{
			"token_id": token.ID,
			"diff_id":  diff.ID,
		}).Warn("Token diff id does not match token id")
		return token
	}
	if diff.Location != nil {
		token.Location = *diff.Location
	}
	if diff.Name != nil {
		token.Name = *diff.Name
	}
	if diff.ImageSource != nil {
		token.ImageSource = *diff.ImageSource
	}
	if diff.Size != nil {
		token.Size = *diff.Size
	}
	if diff.Speed != nil {
		token.Speed = *diff.Speed
	}
	return token
}

func mergeTokenList(current []api.Token, diff api.BoardDiff) []api.Token {
	removed := make(map[string]bool, len(diff.RemovedTokens))
	for _, id := range diff.RemovedTokens {
		removed[id] = true
	}

	tokens := make([]api.Token, 0, len(diff.NewTokens)+len(current))
	tokens = append(tokens, diff.NewTokens...)

	for _, token := range current {
		// Удаление побеждает: дифф для удаленной фишки игнорируется.
		if removed[token.ID] {
			continue
		}
		for _, tokenDiff := range diff.TokenDiffs {
			if tokenDiff.ID == token.ID {
				// Применяется только первый подходящий дифф.
				token = MergeToken(token, tokenDiff)
				break
			}
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func mergeFogOfWar(current [][]bool, diffs []api.FogOfWarDiff) [][]bool {
	fog := cloneFog(current)
	for _, d := range diffs {
		fog = setFogCell(fog, d.Col, d.Row, d.IsFogOn)
	}
	return fog
}

// setFogCell пишет одну клетку. Координаты за пределами текущей сетки
// расширяют её (разреженная семантика), отрицательные - игнорируются.
func setFogCell(fog [][]bool, col, row int, isFogOn bool) [][]bool {
	if col < 0 || row < 0 {
		return fog
	}
	for len(fog) <= col {
		fog = append(fog, nil)
	}
	for len(fog[col]) <= row {
		fog[col] = append(fog[col], false)
	}
	fog[col][row] = isFogOn
	return fog
}

func cloneFog(fog [][]bool) [][]bool {
	if fog == nil {
		return [][]bool{}
	}
	clone := make([][]bool, len(fog))
	for i, col := range fog {
		clone[i] = append([]bool(nil), col...)
	}
	return clone
}
