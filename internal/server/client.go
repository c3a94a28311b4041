package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nkprasad12/dnd/internal/domain"
	"github.com/nkprasad12/dnd/internal/engine"
	"github.com/nkprasad12/dnd/pkg/api"
	"github.com/nkprasad12/dnd/pkg/logger"
	"github.com/nkprasad12/dnd/pkg/utils"
)

// Настройки WebSocket
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Снимки досок с большим туманом войны бывают увесистыми.
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между WebSocket-соединением и SyncService
type Client struct {
	Service  *engine.SyncService
	Conn     *websocket.Conn
	Send     chan api.ServerEvent
	ClientID string

	// Закрывается при выходе writePump: сигнал пересылке из Hub
	// остановиться, даже если буфер Send полон.
	done chan struct{}
}

func NewClient(service *engine.SyncService, conn *websocket.Conn) *Client {
	return &Client{
		Service:  service,
		Conn:     conn,
		Send:     make(chan api.ServerEvent, 256),
		ClientID: utils.GenerateID(),
		done:     make(chan struct{}),
	}
}

// readPump читает события от клиента
func (c *Client) readPump() {
	defer func() {
		c.Service.Hub.Unregister(c.ClientID)
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Warn("failed to close websocket connection")
		}
		logger.Log.WithField("client_id", c.ClientID).Info("Client disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	// ПОДПИСКА НА СОБЫТИЯ ДОСОК
	updates := c.Service.Hub.Register(c.ClientID)
	logger.Log.WithField("client_id", c.ClientID).Info("Client connected")

	// Пересылаем события из Hub в writePump
	go c.forwardUpdates(updates)

	// ЦИКЛ ЧТЕНИЯ СОБЫТИЙ
	for {
		var ev api.ClientEvent
		err := c.Conn.ReadJSON(&ev)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Errorf("WS Error: %v", err)
			}
			break
		}
		c.Service.ProcessEvent(domain.InboundEvent{
			Event:   ev.Event,
			Sender:  c.ClientID,
			Payload: ev.Payload,
		})
	}
}

// forwardUpdates пересылает события из личного канала Hub в writePump.
// Выходит либо когда Hub закрывает канал (Unregister), либо когда умер
// writePump - иначе при полном буфере горутина зависла бы навсегда.
func (c *Client) forwardUpdates(updates chan api.ServerEvent) {
	defer close(c.Send)
	for msg := range updates {
		select {
		case c.Send <- msg:
		case <-c.done:
			return
		}
	}
}

// writePump отправляет события клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Warn("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				logger.Log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
