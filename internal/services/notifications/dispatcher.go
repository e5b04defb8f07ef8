package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/krishn-cti/remit-go/internal/broker/messages"
	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/pkg/errors"
)

type Repo interface {
	InsertNotification(ctx context.Context, n *models.Notification) (uint64, error)
}

type Enqueuer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Dispatcher сначала делает запись уведомления долговечной, потом ставит пуш
// в очередь. Ошибка записи уходит наружу; очередь и доставка — best-effort,
// они никогда не валят переход статуса заказа, который их породил.
type Dispatcher struct {
	repo  Repo
	q     Enqueuer
	topic string
}

func NewDispatcher(repo Repo, q Enqueuer, topic string) *Dispatcher {
	return &Dispatcher{repo: repo, q: q, topic: topic}
}

func (d *Dispatcher) Dispatch(ctx context.Context, in ComposeInput) (uint64, error) {
	p := Compose(in)

	id, err := d.repo.InsertNotification(ctx, &models.Notification{
		SendFromID:   in.SenderID,
		SendToID:     in.ReceiverID,
		OrderCode:    in.OrderCode,
		Title:        p.Title,
		Body:         p.Body,
		Kind:         in.Kind,
		SenderRole:   in.SenderRole,
		ReceiverRole: in.ReceiverRole,
	})
	if err != nil {
		return 0, errors.Wrap(err, "insert notification")
	}

	if d.q == nil || p.Token == "" {
		return id, nil
	}

	msg := messages.NotificationQueued{
		NotificationID: id,
		OrderCode:      in.OrderCode,
		PushToken:      p.Token,
		Title:          p.Title,
		Body:           p.Body,
		Data:           p.Data,
		QueuedAt:       time.Now().UTC(),
	}
	b, _ := json.Marshal(msg)
	if err := d.q.Publish(ctx, d.topic, []byte(in.OrderCode), b); err != nil {
		slog.Warn("enqueue push failed", "order_code", in.OrderCode, "notification_id", id, "error", err.Error())
	}

	return id, nil
}
