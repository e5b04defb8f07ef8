package pgdispatch

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) GetCustomerByID(ctx context.Context, id uint64) (*models.Customer, error) {
	var c models.Customer
	err := s.db.QueryRow(ctx, `
SELECT id, name, fcm_token, profile_image FROM customers WHERE id = $1
`, id).Scan(&c.ID, &c.Name, &c.PushToken, &c.ProfileImage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "select customer")
	}
	return &c, nil
}

func (s *Storage) UpdateCustomerPushToken(ctx context.Context, id uint64, token string) error {
	tag, err := s.db.Exec(ctx, `UPDATE customers SET fcm_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return errors.Wrap(err, "update customer push token")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
