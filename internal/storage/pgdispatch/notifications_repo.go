package pgdispatch

import (
	"context"

	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) InsertNotification(ctx context.Context, n *models.Notification) (uint64, error) {
	var id uint64
	err := s.db.QueryRow(ctx, `
INSERT INTO notifications (
  send_from_id, send_to_id, order_code, title, body,
  notification_kind, is_sender_role, is_receiver_role, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
RETURNING id
`, n.SendFromID, n.SendToID, n.OrderCode, n.Title, n.Body,
		n.Kind, n.SenderRole, n.ReceiverRole).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert notification")
	}
	return id, nil
}

// SetNotificationAction помечает уведомления заказа исходом оффера
// (принят/выполнен/отклонён).
func (s *Storage) SetNotificationAction(ctx context.Context, orderCode string, action int) error {
	_, err := s.db.Exec(ctx, `
UPDATE notifications SET notification_action = $2 WHERE order_code = $1
`, orderCode, action)
	return errors.Wrap(err, "set notification action")
}

func (s *Storage) ListNotifications(ctx context.Context, receiverRole string, receiverID uint64) ([]*models.Notification, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, send_from_id, send_to_id, order_code, title, body,
       notification_kind, notification_action, is_sender_role, is_receiver_role, created_at
FROM notifications
WHERE is_receiver_role = $1 AND send_to_id = $2
ORDER BY created_at DESC
`, receiverRole, receiverID)
	if err != nil {
		return nil, errors.Wrap(err, "select notifications")
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.SendFromID, &n.SendToID, &n.OrderCode, &n.Title, &n.Body,
			&n.Kind, &n.Action, &n.SenderRole, &n.ReceiverRole, &n.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan notification")
		}
		out = append(out, &n)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) DeleteNotification(ctx context.Context, id uint64) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return 0, errors.Wrap(err, "delete notification")
	}
	return tag.RowsAffected(), nil
}

// DeleteDriverNotifications чистит у водителя только закрытые офферы
// (выполненные или отклонённые) — активные предложения остаются.
func (s *Storage) DeleteDriverNotifications(ctx context.Context, driverID uint64) (int64, error) {
	tag, err := s.db.Exec(ctx, `
DELETE FROM notifications
WHERE is_receiver_role = 'driver' AND notification_action IN (2, 3) AND send_to_id = $1
`, driverID)
	if err != nil {
		return 0, errors.Wrap(err, "delete driver notifications")
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) DeleteCustomerNotifications(ctx context.Context, customerID uint64) (int64, error) {
	tag, err := s.db.Exec(ctx, `
DELETE FROM notifications WHERE is_receiver_role = 'user' AND send_to_id = $1
`, customerID)
	if err != nil {
		return 0, errors.Wrap(err, "delete customer notifications")
	}
	return tag.RowsAffected(), nil
}
