package messages

import "time"

// NotificationQueued — задача на доставку пуша. Запись в БД уже сделана;
// воркер только доставляет через провайдера.
type NotificationQueued struct {
	NotificationID uint64            `json:"notification_id"`
	OrderCode      string            `json:"order_code"`
	PushToken      string            `json:"push_token"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
	QueuedAt       time.Time         `json:"queued_at"`
}
