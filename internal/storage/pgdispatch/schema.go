package pgdispatch

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS customers (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  fcm_token TEXT NOT NULL DEFAULT '',
  profile_image TEXT NOT NULL DEFAULT ''
)`,
		`
CREATE TABLE IF NOT EXISTS drivers (
  id BIGSERIAL PRIMARY KEY,
  driver_uuid TEXT NOT NULL,
  name TEXT NOT NULL,
  fcm_token TEXT NOT NULL DEFAULT '',
  latitude DOUBLE PRECISION NULL,
  longitude DOUBLE PRECISION NULL,
  profile_image TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (driver_uuid)
)`,
		`
CREATE TABLE IF NOT EXISTS pickup_addresses (
  id BIGSERIAL PRIMARY KEY,
  customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  location TEXT NOT NULL DEFAULT '',
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS dropoff_addresses (
  id BIGSERIAL PRIMARY KEY,
  customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  location TEXT NOT NULL DEFAULT '',
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id BIGSERIAL PRIMARY KEY,
  code TEXT NOT NULL,
  customer_id BIGINT NOT NULL REFERENCES customers(id),
  pickup_address_id BIGINT NOT NULL REFERENCES pickup_addresses(id),
  dropoff_address_id BIGINT NOT NULL REFERENCES dropoff_addresses(id),
  package_ids BIGINT[] NOT NULL,
  package_qtys BIGINT[] NOT NULL,
  amount NUMERIC(10,2) NOT NULL,
  payment_method_id BIGINT NOT NULL,
  driver_id BIGINT NULL REFERENCES drivers(id),
  status INT NOT NULL DEFAULT 0,
  pickedup_at TIMESTAMPTZ NULL,
  delivered_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (code)
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id, updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_driver_id ON orders(driver_id, updated_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS notifications (
  id BIGSERIAL PRIMARY KEY,
  send_from_id BIGINT NULL,
  send_to_id BIGINT NOT NULL,
  order_code TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  notification_kind INT NOT NULL,
  notification_action INT NOT NULL DEFAULT 0,
  is_sender_role TEXT NOT NULL,
  is_receiver_role TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications(is_receiver_role, send_to_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_order_code ON notifications(order_code)`,
		// Накопительный список отказавшихся: при реоффере исключаем их всех.
		`
CREATE TABLE IF NOT EXISTS order_rejections (
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  driver_id BIGINT NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (order_id, driver_id)
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
