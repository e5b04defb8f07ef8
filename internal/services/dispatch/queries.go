package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/krishn-cti/remit-go/internal/storage/pgdispatch"
	"github.com/pkg/errors"
)

func orderCacheKey(code string) string {
	return "order:" + code
}

// GetOrderByCode — cache-aside чтение; кеш сугубо ускоряющий, его ошибки
// не видны вызывающему.
func (s *Service) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, orderCacheKey(code))
		if err != nil {
			slog.Warn("order cache get failed", "order_code", code, "error", err.Error())
		} else if ok {
			var order models.Order
			if err := json.Unmarshal(raw, &order); err == nil {
				return &order, nil
			}
			slog.Warn("order cache entry corrupt", "order_code", code)
		}
	}

	order, err := s.repo.GetOrderByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgdispatch.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}

	if s.cache != nil {
		if raw, err := json.Marshal(order); err == nil {
			if err := s.cache.Set(ctx, orderCacheKey(code), raw, s.cacheTTL); err != nil {
				slog.Warn("order cache set failed", "order_code", code, "error", err.Error())
			}
		}
	}
	return order, nil
}

func (s *Service) invalidateOrder(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, orderCacheKey(code)); err != nil {
		slog.Warn("order cache del failed", "order_code", code, "error", err.Error())
	}
}

func (s *Service) ListCustomerOrders(ctx context.Context, customerID uint64) ([]*models.OrderSummary, error) {
	out, err := s.repo.ListCustomerOrders(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list customer orders")
	}
	for _, o := range out {
		o.DriverImage = s.absoluteImageURL(o.DriverImage)
	}
	return out, nil
}

func (s *Service) ListDriverOrders(ctx context.Context, driverID uint64) ([]*models.OrderSummary, error) {
	out, err := s.repo.ListDriverOrders(ctx, driverID)
	if err != nil {
		return nil, errors.Wrap(err, "list driver orders")
	}
	for _, o := range out {
		o.CustomerImage = s.absoluteImageURL(o.CustomerImage)
	}
	return out, nil
}

// Пути к аватарам хранятся относительными; абсолютный хост приходит из
// конфигурации, а не из входящего запроса.
func (s *Service) absoluteImageURL(path string) string {
	if path == "" || s.baseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (s *Service) UpdateDriverLocation(ctx context.Context, driverID uint64, lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return &ValidationError{Field: "latitude", Message: "out of range"}
	}
	if lng < -180 || lng > 180 {
		return &ValidationError{Field: "longitude", Message: "out of range"}
	}
	if err := s.repo.UpdateDriverLocation(ctx, driverID, lat, lng); err != nil {
		if errors.Is(err, pgdispatch.ErrNotFound) {
			return ErrDriverNotFound
		}
		return errors.Wrap(err, "update driver location")
	}
	return nil
}

func (s *Service) UpdateDriverPushToken(ctx context.Context, driverID uint64, token string) error {
	if token == "" {
		return &ValidationError{Field: "fcm_token", Message: "is required"}
	}
	if err := s.repo.UpdateDriverPushToken(ctx, driverID, token); err != nil {
		if errors.Is(err, pgdispatch.ErrNotFound) {
			return ErrDriverNotFound
		}
		return errors.Wrap(err, "update driver push token")
	}
	return nil
}

func (s *Service) UpdateCustomerPushToken(ctx context.Context, customerID uint64, token string) error {
	if token == "" {
		return &ValidationError{Field: "fcm_token", Message: "is required"}
	}
	if err := s.repo.UpdateCustomerPushToken(ctx, customerID, token); err != nil {
		if errors.Is(err, pgdispatch.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return errors.Wrap(err, "update customer push token")
	}
	return nil
}

func (s *Service) ListNotifications(ctx context.Context, receiverRole string, receiverID uint64) ([]*models.Notification, error) {
	return s.repo.ListNotifications(ctx, receiverRole, receiverID)
}

func (s *Service) DeleteNotification(ctx context.Context, id uint64) error {
	n, err := s.repo.DeleteNotification(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete notification")
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteDriverNotifications убирает у водителя только закрытые уведомления
// (completed/rejected), активные офферы остаются.
func (s *Service) DeleteDriverNotifications(ctx context.Context, driverID uint64) (int64, error) {
	return s.repo.DeleteDriverNotifications(ctx, driverID)
}

func (s *Service) DeleteCustomerNotifications(ctx context.Context, customerID uint64) (int64, error) {
	return s.repo.DeleteCustomerNotifications(ctx, customerID)
}
