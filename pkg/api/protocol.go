package api

import (
	"encoding/json"
)

// Имена событий board-канала. Должны побайтово совпадать с теми,
// что использует существующий клиент, иначе синхронизация молча сломается.
const (
	EventBoardUpdate        = "board-update"
	EventBoardCreateRequest = "board-create-request"

	EventBoardGetRequest  = "board-get-request"
	EventBoardGetResponse = "board-get-response"

	EventBoardGetAllRequest  = "board-get-all-request"
	EventBoardGetAllResponse = "board-get-all-response"

	EventBoardGetActiveRequest  = "board-get-active-request"
	EventBoardGetActiveResponse = "board-get-active-response"

	EventBoardSetActive = "board-set-active"
)

// --- КОНВЕРТЫ ---

// ClientEvent это корневой объект для всех сообщений от клиента к серверу.
type ClientEvent struct {
	// Event имя события (см. константы Event* выше).
	Event string `json:"event"`

	// Payload JSON-объект с данными события. Его структура зависит от Event.
	// Для board-get-request и board-set-active это просто строка с ID доски.
	Payload json.RawMessage `json:"payload"`
}

// ServerEvent это корневой объект для всех сообщений от сервера к клиенту.
type ServerEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// --- ДОСКА ---

// Location позиция на сетке доски.
type Location struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Token это фишка на доске (персонаж, монстр, предмет).
type Token struct {
	// ID уникален в пределах доски. Не меняется после создания.
	ID       string   `json:"id"`
	Location Location `json:"location"`
	Name     string   `json:"name"`

	// ImageSource ключ картинки фишки. Сами байты картинки сервер
	// синхронизации не трогает, ими занимается отдельный image-сервис.
	ImageSource string `json:"imageSource"`

	// Size размер фишки в клетках (1 = обычная, 2 = большая и т.д.).
	Size int `json:"size"`

	// Speed скорость перемещения в клетках за ход.
	Speed int `json:"speed"`
}

// Board это полный снимок одной доски.
// Отправляется в ответ на board-get-response и принимается в board-create-request.
type Board struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImageSource string `json:"imageSource"`

	// TileSize размер клетки в пикселях фоновой картинки.
	TileSize int `json:"tileSize"`

	Tokens []Token `json:"tokens"`

	// FogOfWar маска тумана войны, индексация [col][row].
	// Размеры сетки неявные: их задает само содержимое.
	FogOfWar [][]bool `json:"fogOfWar"`
}

// --- ДИФФЫ ---

// TokenDiff частичное обновление одной существующей фишки.
// nil-поле означает "не менялось". ID обязателен.
type TokenDiff struct {
	ID          string    `json:"id"`
	Location    *Location `json:"location,omitempty"`
	Name        *string   `json:"name,omitempty"`
	ImageSource *string   `json:"imageSource,omitempty"`
	Size        *int      `json:"size,omitempty"`
	Speed       *int      `json:"speed,omitempty"`
}

// FogOfWarDiff обновление одной клетки тумана войны.
type FogOfWarDiff struct {
	Col     int  `json:"col"`
	Row     int  `json:"row"`
	IsFogOn bool `json:"isFogOn"`
}

// BoardDiff это изменение доски, присланное клиентом (board-update).
// Сервер рассылает его остальным клиентам как есть и параллельно
// вливает в свою каноническую копию. Сам дифф никогда не сохраняется.
type BoardDiff struct {
	// ID доски, к которой относится дифф.
	ID string `json:"id"`

	// NewTokens полностью новые фишки.
	NewTokens []Token `json:"newTokens"`

	// RemovedTokens ID фишек, которые нужно удалить.
	RemovedTokens []string `json:"removedTokens"`

	// TokenDiffs частичные обновления существующих фишек, по одному на фишку.
	TokenDiffs []TokenDiff `json:"tokenDiffs"`

	// FogOfWarDiffs поклеточные изменения тумана войны.
	FogOfWarDiffs []FogOfWarDiff `json:"fogOfWarDiffs,omitempty"`

	// Скалярные поля доски. nil означает "не менялось".
	Name        *string `json:"name,omitempty"`
	ImageSource *string `json:"imageSource,omitempty"`
	TileSize    *int    `json:"tileSize,omitempty"`
}
