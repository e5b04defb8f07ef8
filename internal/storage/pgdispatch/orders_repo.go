package pgdispatch

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

func (s *Storage) CreateOrder(ctx context.Context, in models.OrderCreateInput) (*models.Order, error) {
	now := time.Now().UTC()

	var id uint64
	err := s.db.QueryRow(ctx, `
INSERT INTO orders (
  code, customer_id, pickup_address_id, dropoff_address_id,
  package_ids, package_qtys, amount, payment_method_id,
  status, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
RETURNING id
`, in.Code, in.CustomerID, in.PickupAddressID, in.DropoffAddressID,
		in.PackageIDs, in.PackageQtys, in.Amount, in.PaymentMethodID,
		models.OrderStatusPending, now).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	return s.GetOrderByID(ctx, id)
}

const orderColumns = `
  id, code, customer_id, pickup_address_id, dropoff_address_id,
  package_ids, package_qtys, amount, payment_method_id,
  driver_id, status, pickedup_at, delivered_at, created_at, updated_at`

const orderColumnsQ = `
  o.id, o.code, o.customer_id, o.pickup_address_id, o.dropoff_address_id,
  o.package_ids, o.package_qtys, o.amount, o.payment_method_id,
  o.driver_id, o.status, o.pickedup_at, o.delivered_at, o.created_at, o.updated_at`

func (s *Storage) scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(
		&o.ID, &o.Code, &o.CustomerID, &o.PickupAddressID, &o.DropoffAddressID,
		&o.PackageIDs, &o.PackageQtys, &o.Amount, &o.PaymentMethodID,
		&o.DriverID, &o.Status, &o.PickedUpAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "scan order")
	}
	return &o, nil
}

func (s *Storage) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	return s.scanOrder(s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (s *Storage) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	return s.scanOrder(s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE code = $1`, code))
}

func (s *Storage) OrderCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check order code")
	}
	return exists, nil
}

// UpdateOrderStatus применяет переход статуса одним условным UPDATE: строка
// меняется только если текущий статус равен ожидаемому. Возвращает число
// затронутых строк; 0 — перехода не было (конкурирующий вызов успел раньше).
func (s *Storage) UpdateOrderStatus(ctx context.Context, id uint64, upd models.OrderStatusUpdate) (int64, error) {
	tag, err := s.db.Exec(ctx, `
UPDATE orders
SET status = $3,
    driver_id = COALESCE($4, driver_id),
    pickedup_at = COALESCE($5, pickedup_at),
    delivered_at = COALESCE($6, delivered_at),
    updated_at = now()
WHERE id = $1 AND status = $2
`, id, upd.FromStatus, upd.ToStatus, upd.DriverID, upd.PickedUpAt, upd.DeliveredAt)
	if err != nil {
		return 0, errors.Wrap(err, "update order status")
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) ListCustomerOrders(ctx context.Context, customerID uint64) ([]*models.OrderSummary, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumnsQ+`,
  COALESCE(d.name, ''), COALESCE(d.profile_image, ''),
  COALESCE(pa.location, ''), COALESCE(da.location, '')
FROM orders o
LEFT JOIN drivers d ON o.driver_id = d.id
LEFT JOIN pickup_addresses pa ON o.pickup_address_id = pa.id
LEFT JOIN dropoff_addresses da ON o.dropoff_address_id = da.id
WHERE o.customer_id = $1
ORDER BY o.updated_at DESC
`, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "select customer orders")
	}
	defer rows.Close()

	return scanOrderSummaries(rows, func(sum *models.OrderSummary, a, b string) {
		sum.DriverName, sum.DriverImage = a, b
	})
}

func (s *Storage) ListDriverOrders(ctx context.Context, driverID uint64) ([]*models.OrderSummary, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumnsQ+`,
  COALESCE(c.name, ''), COALESCE(c.profile_image, ''),
  COALESCE(pa.location, ''), COALESCE(da.location, '')
FROM orders o
LEFT JOIN customers c ON o.customer_id = c.id
LEFT JOIN pickup_addresses pa ON o.pickup_address_id = pa.id
LEFT JOIN dropoff_addresses da ON o.dropoff_address_id = da.id
WHERE o.driver_id = $1
ORDER BY o.updated_at DESC
`, driverID)
	if err != nil {
		return nil, errors.Wrap(err, "select driver orders")
	}
	defer rows.Close()

	return scanOrderSummaries(rows, func(sum *models.OrderSummary, a, b string) {
		sum.CustomerName, sum.CustomerImage = a, b
	})
}

func scanOrderSummaries(rows pgx.Rows, setParty func(*models.OrderSummary, string, string)) ([]*models.OrderSummary, error) {
	var out []*models.OrderSummary
	for rows.Next() {
		var sum models.OrderSummary
		var partyName, partyImage string
		if err := rows.Scan(
			&sum.ID, &sum.Code, &sum.CustomerID, &sum.PickupAddressID, &sum.DropoffAddressID,
			&sum.PackageIDs, &sum.PackageQtys, &sum.Amount, &sum.PaymentMethodID,
			&sum.DriverID, &sum.Status, &sum.PickedUpAt, &sum.DeliveredAt, &sum.CreatedAt, &sum.UpdatedAt,
			&partyName, &partyImage, &sum.PickupLocation, &sum.DropoffLocation,
		); err != nil {
			return nil, errors.Wrap(err, "scan order summary")
		}
		setParty(&sum, partyName, partyImage)
		out = append(out, &sum)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) GetPickupAddress(ctx context.Context, id uint64) (*models.Address, error) {
	var a models.Address
	err := s.db.QueryRow(ctx, `
SELECT id, customer_id, location, latitude, longitude
FROM pickup_addresses
WHERE id = $1
`, id).Scan(&a.ID, &a.OwnerID, &a.Location, &a.Latitude, &a.Longitude)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "select pickup address")
	}
	return &a, nil
}
