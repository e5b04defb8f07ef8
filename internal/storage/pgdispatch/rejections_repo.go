package pgdispatch

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) AddOrderRejection(ctx context.Context, orderID, driverID uint64) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO order_rejections (order_id, driver_id)
VALUES ($1, $2)
ON CONFLICT (order_id, driver_id) DO NOTHING
`, orderID, driverID)
	return errors.Wrap(err, "insert order rejection")
}

func (s *Storage) ListOrderRejections(ctx context.Context, orderID uint64) ([]uint64, error) {
	rows, err := s.db.Query(ctx, `
SELECT driver_id FROM order_rejections WHERE order_id = $1 ORDER BY created_at
`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select order rejections")
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan rejection")
		}
		out = append(out, id)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
