package notifications

import (
	"strconv"

	"github.com/krishn-cti/remit-go/internal/models"
)

type ComposeInput struct {
	Kind         int
	ActorName    string
	SenderID     *uint64
	ReceiverID   uint64
	SenderRole   string
	ReceiverRole string
	PushToken    string
	OrderCode    string
}

type Payload struct {
	Title string
	Body  string
	Data  map[string]string
	Token string
}

// Compose собирает текст и data-пакет пуша по виду события. Неизвестный вид не
// ошибка: уходит обобщённый текст — так вёл себя бэкенд всегда, клиенты на это
// завязаны.
func Compose(in ComposeInput) Payload {
	var title, body string

	switch in.Kind {
	case models.NotificationKindOfferedToDriver:
		title = "New Package Available"
		body = in.ActorName + " has requested a package pickup near your location."
	case models.NotificationKindAccepted:
		title = "Package Accepted"
		body = "Your package has been accepted by the " + in.ActorName + " and will be collected soon."
	case models.NotificationKindCompleted:
		title = "Package Delivered"
		body = "Your package has been successfully delivered."
	case models.NotificationKindNoDriverAvailable:
		title = "No Drivers Available"
		body = "Sorry, drivers are busy or not available at the moment. Please try again later."
	default:
		title = "Notification"
		body = "You have a new update."
	}

	// Все значения приводим к строкам, отсутствующие — к "": сериализация
	// на стороне провайдера не переносит null в data.
	sendFrom := ""
	if in.SenderID != nil {
		sendFrom = strconv.FormatUint(*in.SenderID, 10)
	}
	sendTo := ""
	if in.ReceiverID != 0 {
		sendTo = strconv.FormatUint(in.ReceiverID, 10)
	}

	return Payload{
		Title: title,
		Body:  body,
		Token: in.PushToken,
		Data: map[string]string{
			"sendFrom":         sendFrom,
			"sendTo":           sendTo,
			"sendFromRole":     in.SenderRole,
			"sendToRole":       in.ReceiverRole,
			"notificationType": strconv.Itoa(in.Kind),
			"packageNo":        in.OrderCode,
		},
	}
}
