package network

import (
	"sync"

	"github.com/nkprasad12/dnd/pkg/api"
)

// Broadcaster занимается только рассылкой событий подписчикам board-канала.
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: ID клиентской сессии -> личный канал
	subscribers map[string]chan api.ServerEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.ServerEvent),
	}
}

// Register создает личный канал для новой клиентской сессии.
func (b *Broadcaster) Register(clientID string) chan api.ServerEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал с таким ID уже был, закрываем старый.
	if old, ok := b.subscribers[clientID]; ok {
		close(old)
	}

	ch := make(chan api.ServerEvent, 100)
	b.subscribers[clientID] = ch
	return ch
}

// Unregister удаляет подписчика.
func (b *Broadcaster) Unregister(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[clientID]; ok {
		close(ch)
		delete(b.subscribers, clientID)
	}
}

// SendTo отправляет событие конкретной сессии (ответ на запрос).
func (b *Broadcaster) SendTo(clientID string, msg api.ServerEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[clientID]; ok {
		select {
		case ch <- msg:
		default:
			// Пропускаем медленных клиентов
		}
	}
}

// Broadcast отправляет событие всем подписчикам.
func (b *Broadcaster) Broadcast(msg api.ServerEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// BroadcastExcept отправляет событие всем, кроме отправителя.
// Так рассылаются диффы: автор уже применил изменение локально.
func (b *Broadcaster) BroadcastExcept(senderID string, msg api.ServerEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		if id == senderID {
			continue
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

// HasSubscriber проверяет, подключена ли сессия с данным ID.
func (b *Broadcaster) HasSubscriber(clientID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[clientID]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
