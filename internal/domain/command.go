package domain

import "encoding/json"

// InboundEvent - событие клиента, прошедшее транспортный слой (WebSocket).
// Между событиями нет сессионного состояния: каждое обрабатывается независимо.
type InboundEvent struct {
	// Event имя события (см. pkg/api).
	Event string

	// Sender ID клиентской сессии, приславшей событие. Нужен, чтобы
	// не возвращать автору его же дифф и адресовать ответы на get-запросы.
	Sender string

	// Payload сырые байты полезной нагрузки. Разбором занимается хендлер,
	// исходные байты сохраняются для рассылки диффа "как есть".
	Payload json.RawMessage
}
