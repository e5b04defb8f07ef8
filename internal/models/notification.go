package models

import "time"

// Виды уведомлений. Числовые теги уезжают в data-пакет пуша как строки.
const (
	NotificationKindOfferedToDriver   = 1
	NotificationKindAccepted          = 2
	NotificationKindCompleted         = 3
	NotificationKindNoDriverAvailable = 4
)

// Отметки действия на уведомлении-оффере: чем закончился оффер.
const (
	NotificationActionNone      = 0
	NotificationActionAccepted  = 1
	NotificationActionCompleted = 2
	NotificationActionRejected  = 3
)

const (
	RoleUser   = "user"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

type Notification struct {
	ID           uint64
	SendFromID   *uint64
	SendToID     uint64
	OrderCode    string
	Title        string
	Body         string
	Kind         int
	Action       int
	SenderRole   string
	ReceiverRole string
	CreatedAt    time.Time
}
