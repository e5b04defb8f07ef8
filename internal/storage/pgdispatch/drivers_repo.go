package pgdispatch

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) CreateDriver(ctx context.Context, name string) (*models.Driver, error) {
	var d models.Driver
	err := s.db.QueryRow(ctx, `
INSERT INTO drivers (driver_uuid, name, updated_at)
VALUES ($1, $2, now())
RETURNING id, driver_uuid, name, fcm_token, latitude, longitude, profile_image, updated_at
`, uuid.NewString(), name).Scan(
		&d.ID, &d.UUID, &d.Name, &d.PushToken, &d.Latitude, &d.Longitude, &d.ProfileImage, &d.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert driver")
	}
	return &d, nil
}

func (s *Storage) GetDriverByID(ctx context.Context, id uint64) (*models.Driver, error) {
	var d models.Driver
	err := s.db.QueryRow(ctx, `
SELECT id, driver_uuid, name, fcm_token, latitude, longitude, profile_image, updated_at
FROM drivers
WHERE id = $1
`, id).Scan(&d.ID, &d.UUID, &d.Name, &d.PushToken, &d.Latitude, &d.Longitude, &d.ProfileImage, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "select driver")
	}
	return &d, nil
}

// ListActive отдаёт водителей, которым вообще можно предлагать заказы:
// есть токен устройства и известна локация. Ранжирует по дистанции geomatch.
func (s *Storage) ListActive(ctx context.Context) ([]*models.Driver, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, driver_uuid, name, fcm_token, latitude, longitude, profile_image, updated_at
FROM drivers
WHERE fcm_token <> '' AND latitude IS NOT NULL AND longitude IS NOT NULL
ORDER BY id
`)
	if err != nil {
		return nil, errors.Wrap(err, "select active drivers")
	}
	defer rows.Close()

	var out []*models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.UUID, &d.Name, &d.PushToken, &d.Latitude, &d.Longitude, &d.ProfileImage, &d.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan driver")
		}
		out = append(out, &d)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) UpdateDriverLocation(ctx context.Context, id uint64, lat, lng float64) error {
	tag, err := s.db.Exec(ctx, `
UPDATE drivers SET latitude = $2, longitude = $3, updated_at = now() WHERE id = $1
`, id, lat, lng)
	if err != nil {
		return errors.Wrap(err, "update driver location")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) UpdateDriverPushToken(ctx context.Context, id uint64, token string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE drivers SET fcm_token = $2, updated_at = now() WHERE id = $1
`, id, token)
	if err != nil {
		return errors.Wrap(err, "update driver push token")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
