package engine

import (
	"encoding/json"
	"sync"

	"github.com/nkprasad12/dnd/internal/infrastructure/storage"
	"github.com/nkprasad12/dnd/pkg/logger"
)

// Ключи хранилища для состояния каталога. Фиксированные имена,
// унаследованные от старого формата server_db.
const (
	activeBoardKey = "active.db"
	allBoardsKey   = "all_boards.db"
)

// BoardDirectory отслеживает множество известных досок и ID активной доски.
//
// Оба значения лениво поднимаются из хранилища при первом обращении и
// дальше живут в памяти как авторитетная копия: из хранилища они больше
// не перечитываются. Записи каталога, в отличие от досок, идут в хранилище
// сразу (write-through) - каталог меняется редко, а его консистентность
// важнее частоты записи.
type BoardDirectory struct {
	mu    sync.Mutex
	store storage.Store

	ids       []string
	idsLoaded bool

	active       string
	activeLoaded bool
}

func NewBoardDirectory(store storage.Store) *BoardDirectory {
	return &BoardDirectory{store: store}
}

// ListBoardIDs возвращает ID всех известных досок.
// Никогда не возвращает nil: пустой каталог в ответе board-get-all
// должен сериализоваться как [], а не null.
func (d *BoardDirectory) ListBoardIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureIDsLoaded()
	ids := make([]string, 0, len(d.ids))
	return append(ids, d.ids...)
}

// RegisterBoardID добавляет ID в множество известных досок (если его там
// еще нет) и сразу пишет обновленный список в хранилище.
func (d *BoardDirectory) RegisterBoardID(boardID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureIDsLoaded()
	for _, id := range d.ids {
		if id == boardID {
			return
		}
	}
	d.ids = append(d.ids, boardID)

	data, err := json.Marshal(d.ids)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to encode board id list")
		return
	}
	if err := d.store.Put(allBoardsKey, data); err != nil {
		// Копия в памяти остается авторитетной; потеря обнаружится
		// только после рестарта процесса.
		logger.Log.WithField("board_id", boardID).WithError(err).
			Error("Failed to persist board id list")
	}
}

// ActiveBoardID возвращает ID активной доски.
// Если активная доска ни разу не выставлялась - пустую строку.
func (d *BoardDirectory) ActiveBoardID() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.activeLoaded {
		data, err := d.store.Get(activeBoardKey)
		if err != nil {
			if err != storage.ErrNotFound {
				logger.Log.WithError(err).Warn("Failed to read active board id")
			}
			d.active = ""
		} else {
			d.active = string(data)
		}
		d.activeLoaded = true
	}
	return d.active
}

// SetActiveBoardID выставляет активную доску и сразу пишет её в хранилище.
func (d *BoardDirectory) SetActiveBoardID(boardID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.active = boardID
	d.activeLoaded = true
	if err := d.store.Put(activeBoardKey, []byte(boardID)); err != nil {
		logger.Log.WithField("board_id", boardID).WithError(err).
			Error("Failed to persist active board id")
	}
}

// ensureIDsLoaded поднимает список ID из хранилища. Вызывается под мьютексом.
func (d *BoardDirectory) ensureIDsLoaded() {
	if d.idsLoaded {
		return
	}
	d.idsLoaded = true

	data, err := d.store.Get(allBoardsKey)
	if err != nil {
		if err != storage.ErrNotFound {
			logger.Log.WithError(err).Warn("Failed to read board id list")
		}
		d.ids = []string{}
		return
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		// Нечитаемый список - стартуем с пустого, как при отсутствии файла.
		logger.Log.WithError(err).Warn("Failed to decode board id list")
		d.ids = []string{}
		return
	}
	d.ids = ids
}
