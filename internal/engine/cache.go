package engine

import (
	"sync"
	"time"

	"github.com/nkprasad12/dnd/internal/infrastructure/storage"
	"github.com/nkprasad12/dnd/pkg/api"
	"github.com/nkprasad12/dnd/pkg/logger"
)

// DefaultFlushInterval - период фонового сброса кэша в хранилище.
const DefaultFlushInterval = 60 * time.Second

// boardKey возвращает ключ хранилища для доски.
func boardKey(boardID string) string {
	return boardID + ".txt"
}

// cacheEntry - доска плюс отметки времени для отслеживания "грязности".
// Запись грязная, если saveTime < updateTime.
type cacheEntry struct {
	board      *api.Board
	updateTime time.Time
	saveTime   time.Time
}

// BoardCache - единственный источник правды по каждой доске в памяти процесса.
//
// Обновления видны последующим чтениям сразу, а в хранилище уходят
// отложенно: фоновый цикл раз в flushInterval сбрасывает грязные записи.
// Записи никогда не вытесняются - каждая доска, которой коснулся процесс,
// живет в кэше до его завершения.
type BoardCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	store    storage.Store
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewBoardCache(store storage.Store, flushInterval time.Duration) *BoardCache {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	return &BoardCache{
		entries:  make(map[string]*cacheEntry),
		store:    store,
		interval: flushInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновый flush-цикл.
func (c *BoardCache) Start() {
	go c.run()
}

// Stop останавливает цикл и делает финальный синхронный сброс,
// чтобы при штатном завершении не потерять хвост обновлений.
func (c *BoardCache) Stop() {
	close(c.stop)
	<-c.done
}

// GetBoard возвращает доску по ID.
// Если доски нет в кэше, пробует поднять её из хранилища. Отсутствие
// или нечитаемость в хранилище - не ошибка: возвращается (nil, false),
// для вызывающего кода это "доска еще не существует".
//
// Возвращенную доску нельзя модифицировать: новое состояние всегда
// заводится через UpdateBoard.
func (c *BoardCache) GetBoard(boardID string) (*api.Board, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[boardID]; ok {
		return entry.board, true
	}

	data, err := c.store.Get(boardKey(boardID))
	if err != nil {
		if err != storage.ErrNotFound {
			logger.Log.WithField("board_id", boardID).WithError(err).
				Warn("Failed to read board from store")
		}
		return nil, false
	}
	board, err := DecodeBoard(data)
	if err != nil {
		logger.Log.WithField("board_id", boardID).WithError(err).
			Warn("Failed to decode stored board")
		return nil, false
	}

	now := time.Now()
	c.entries[boardID] = &cacheEntry{
		board: board,
		// Загруженная доска совпадает с хранилищем: время обновления
		// выставляем строго ДО времени сохранения, чтобы ближайший
		// flush её не перезаписывал.
		updateTime: now.Add(-time.Millisecond),
		saveTime:   now,
	}
	logger.Log.WithField("board_id", boardID).Debug("Board loaded from store")
	return board, true
}

// UpdateBoard кладет в кэш новое состояние доски.
// Возвращает true, если доска до этого не существовала.
// В хранилище ничего не пишет - этим занимается flush-цикл.
func (c *BoardCache) UpdateBoard(boardID string, board *api.Board) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[boardID]
	if !ok {
		c.entries[boardID] = &cacheEntry{
			board:      board,
			updateTime: time.Now(),
			// Нулевое saveTime заведомо раньше любого updateTime:
			// новая доска гарантированно попадет в ближайший flush.
			saveTime: time.Time{},
		}
		return true
	}

	entry.board = board
	now := time.Now()
	if !now.After(entry.updateTime) {
		// Часы с грубым разрешением: сдвигаем вручную, чтобы
		// порядок updateTime оставался строгим.
		now = entry.updateTime.Add(time.Millisecond)
	}
	entry.updateTime = now
	return false
}

// flushItem - грязная запись, снятая под мьютексом для записи вне его.
type flushItem struct {
	boardID    string
	entry      *cacheEntry
	updateTime time.Time
	data       []byte
}

// Flush делает один проход по кэшу и пишет все грязные доски в хранилище.
//
// Мьютекс держится только на время снятия снимков: сама запись в хранилище
// идет без него, и GetBoard/UpdateBoard не ждут медленный диск. При ошибке
// записи saveTime не продвигается - следующий проход повторит попытку;
// остальные доски прохода при этом не страдают.
func (c *BoardCache) Flush() {
	c.mu.Lock()
	var items []flushItem
	for boardID, entry := range c.entries {
		if !entry.saveTime.Before(entry.updateTime) {
			continue
		}
		data, err := EncodeBoard(entry.board)
		if err != nil {
			logger.Log.WithField("board_id", boardID).WithError(err).
				Error("Failed to encode board for flush")
			continue
		}
		items = append(items, flushItem{
			boardID:    boardID,
			entry:      entry,
			updateTime: entry.updateTime,
			data:       data,
		})
	}
	c.mu.Unlock()

	for _, item := range items {
		if err := c.store.Put(boardKey(item.boardID), item.data); err != nil {
			logger.Log.WithField("board_id", item.boardID).WithError(err).
				Error("Failed to flush board to store")
			continue
		}
		c.mu.Lock()
		// Продвигаем saveTime только до снятого снимка: если доску успели
		// обновить, пока шла запись, она остается грязной.
		if item.updateTime.After(item.entry.saveTime) {
			item.entry.saveTime = item.updateTime
		}
		c.mu.Unlock()
		logger.Log.WithField("board_id", item.boardID).Debug("Board flushed to store")
	}
}

// run - flush-цикл. Таймер перезаводится ПОСЛЕ прохода: медленная запись
// не приводит к наложению двух проходов друг на друга.
func (c *BoardCache) run() {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-c.stop:
			c.Flush()
			close(c.done)
			return
		case <-timer.C:
			c.Flush()
			timer.Reset(c.interval)
		}
	}
}

// EntryInfo - снимок состояния одной записи кэша для debug-эндпоинтов.
type EntryInfo struct {
	BoardID    string    `json:"board_id"`
	Dirty      bool      `json:"dirty"`
	TokenCount int       `json:"token_count"`
	UpdateTime time.Time `json:"update_time"`
	SaveTime   time.Time `json:"save_time"`
}

// Snapshot возвращает состояние всех записей кэша.
func (c *BoardCache) Snapshot() []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]EntryInfo, 0, len(c.entries))
	for boardID, entry := range c.entries {
		infos = append(infos, EntryInfo{
			BoardID:    boardID,
			Dirty:      entry.saveTime.Before(entry.updateTime),
			TokenCount: len(entry.board.Tokens),
			UpdateTime: entry.updateTime,
			SaveTime:   entry.saveTime,
		})
	}
	return infos
}
