package engine

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/nkprasad12/dnd/internal/domain"
	"github.com/nkprasad12/dnd/internal/network"
	"github.com/nkprasad12/dnd/internal/systems"
	"github.com/nkprasad12/dnd/pkg/api"
	"github.com/nkprasad12/dnd/pkg/logger"
)

type handlerFunc func(sender string, payload json.RawMessage)

// SyncService - событийный фасад синхронизации досок.
//
// Принимает события клиентов, гоняет диффы через merge и кэш и решает,
// что рассылать остальным подписчикам. Все события обрабатываются одним
// циклом, поэтому обновления одной доски применяются строго в порядке
// поступления; персистентность при этом никого не блокирует - ей
// занимается flush-цикл кэша.
type SyncService struct {
	Cache     *BoardCache
	Directory *BoardDirectory
	Hub       *network.Broadcaster

	EventChan chan domain.InboundEvent
	handlers  map[string]handlerFunc

	stop chan struct{}
	done chan struct{}
}

func NewSyncService(cache *BoardCache, directory *BoardDirectory, hub *network.Broadcaster) *SyncService {
	s := &SyncService{
		Cache:     cache,
		Directory: directory,
		Hub:       hub,
		EventChan: make(chan domain.InboundEvent, 100),
		handlers:  make(map[string]handlerFunc),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.registerHandlers()
	return s
}

func (s *SyncService) registerHandlers() {
	s.handlers[api.EventBoardUpdate] = s.handleUpdate
	s.handlers[api.EventBoardCreateRequest] = s.handleCreate
	s.handlers[api.EventBoardGetRequest] = s.handleGet
	s.handlers[api.EventBoardGetAllRequest] = s.handleGetAll
	s.handlers[api.EventBoardGetActiveRequest] = s.handleGetActive
	s.handlers[api.EventBoardSetActive] = s.handleSetActive
}

func (s *SyncService) Start() {
	go s.run()
}

// Stop останавливает цикл обработки. События, уже лежащие в очереди,
// дообрабатываются перед выходом.
func (s *SyncService) Stop() {
	close(s.stop)
	<-s.done
}

// ProcessEvent принимает событие от транспортного слоя.
func (s *SyncService) ProcessEvent(ev domain.InboundEvent) {
	select {
	case s.EventChan <- ev:
	default:
		logger.Log.WithField("event", ev.Event).Warn("Event queue full, dropping event")
	}
}

func (s *SyncService) run() {
	logger.Log.Info("Board sync loop started")
	for {
		select {
		case ev := <-s.EventChan:
			s.dispatch(ev)
		case <-s.stop:
			for {
				select {
				case ev := <-s.EventChan:
					s.dispatch(ev)
				default:
					close(s.done)
					return
				}
			}
		}
	}
}

func (s *SyncService) dispatch(ev domain.InboundEvent) {
	handler, ok := s.handlers[ev.Event]
	if !ok {
		logger.Log.WithField("event", ev.Event).Warn("Unknown board event")
		return
	}
	logger.Log.WithField("event", ev.Event).Debug("Handling board event")
	handler(ev.Sender, ev.Payload)
}

// handleUpdate обрабатывает board-update: дифф от одного из редакторов.
//
// Сырой дифф уходит остальным подписчикам СРАЗУ, до merge и тем более до
// персистентности: автор уже применил его локально, и остальные применят
// его так же независимо. Merge нужен только затем, чтобы канонический
// серверный снимок был корректен для поздно подключившихся (board-get).
func (s *SyncService) handleUpdate(sender string, payload json.RawMessage) {
	var diff api.BoardDiff
	if err := json.Unmarshal(payload, &diff); err != nil {
		logger.Log.WithError(err).Warn("Ignoring malformed board update")
		return
	}
	if err := diff.Validate(); err != nil {
		logger.Log.WithError(err).Warn("Ignoring invalid board update")
		return
	}

	s.Hub.BroadcastExcept(sender, api.ServerEvent{
		Event:   api.EventBoardUpdate,
		Payload: payload,
	})

	current, ok := s.Cache.GetBoard(diff.ID)
	if !ok {
		// Доску знают только клиенты. Дифф уже разослан, но влить его
		// некуда - фиксируем для диагностики потери данных.
		logger.Log.WithFields(logrus.Fields{
			"board_id": diff.ID,
			"event":    api.EventBoardUpdate,
		}).Warn("Received update for unknown board")
		return
	}

	merged := systems.MergeBoard(*current, diff)
	s.Cache.UpdateBoard(merged.ID, &merged)
	s.Directory.RegisterBoardID(merged.ID)
}

// handleCreate обрабатывает board-create-request: полный снимок новой доски.
func (s *SyncService) handleCreate(sender string, payload json.RawMessage) {
	var board api.Board
	if err := json.Unmarshal(payload, &board); err != nil {
		logger.Log.WithError(err).Warn("Ignoring malformed board create request")
		return
	}
	FillBoardDefaults(&board)
	if err := board.Validate(); err != nil {
		logger.Log.WithError(err).Warn("Ignoring invalid board create request")
		return
	}

	created := s.Cache.UpdateBoard(board.ID, &board)
	s.Directory.RegisterBoardID(board.ID)
	logger.Log.WithFields(logrus.Fields{
		"board_id": board.ID,
		"created":  created,
	}).Info("Board created")
}

// handleGet обрабатывает board-get-request. Payload - строка с ID доски.
// Неизвестная доска - не ошибка: отвечаем пустой заглушкой.
func (s *SyncService) handleGet(sender string, payload json.RawMessage) {
	var boardID string
	if err := json.Unmarshal(payload, &boardID); err != nil || boardID == "" {
		logger.Log.Warn("Ignoring board get request without board id")
		return
	}

	board, ok := s.Cache.GetBoard(boardID)
	if !ok {
		board = EmptyBoard(boardID)
	}
	s.Hub.SendTo(sender, api.ServerEvent{
		Event:   api.EventBoardGetResponse,
		Payload: board,
	})
}

func (s *SyncService) handleGetAll(sender string, _ json.RawMessage) {
	s.Hub.SendTo(sender, api.ServerEvent{
		Event:   api.EventBoardGetAllResponse,
		Payload: s.Directory.ListBoardIDs(),
	})
}

func (s *SyncService) handleGetActive(sender string, _ json.RawMessage) {
	// Пустая строка означает "активная доска еще не выставлялась".
	s.Hub.SendTo(sender, api.ServerEvent{
		Event:   api.EventBoardGetActiveResponse,
		Payload: s.Directory.ActiveBoardID(),
	})
}

func (s *SyncService) handleSetActive(sender string, payload json.RawMessage) {
	var boardID string
	if err := json.Unmarshal(payload, &boardID); err != nil || boardID == "" {
		logger.Log.Warn("Ignoring set active request without board id")
		return
	}
	s.Directory.SetActiveBoardID(boardID)
}
