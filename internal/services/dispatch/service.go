package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/krishn-cti/remit-go/internal/services/geomatch"
	"github.com/krishn-cti/remit-go/internal/services/notifications"
	"github.com/krishn-cti/remit-go/internal/storage/pgdispatch"
	"github.com/pkg/errors"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDriverNotFound       = errors.New("driver not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrOrderConflict — условный UPDATE не прошёл: статус уже сменил
	// конкурирующий вызов.
	ErrOrderConflict = errors.New("order status conflict")
)

// ValidationError — отказ до любых мутаций, с привязкой к полю.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type Repository interface {
	CreateOrder(ctx context.Context, in models.OrderCreateInput) (*models.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	OrderCodeExists(ctx context.Context, code string) (bool, error)
	UpdateOrderStatus(ctx context.Context, id uint64, upd models.OrderStatusUpdate) (int64, error)
	ListCustomerOrders(ctx context.Context, customerID uint64) ([]*models.OrderSummary, error)
	ListDriverOrders(ctx context.Context, driverID uint64) ([]*models.OrderSummary, error)

	GetPickupAddress(ctx context.Context, id uint64) (*models.Address, error)
	GetCustomerByID(ctx context.Context, id uint64) (*models.Customer, error)
	GetDriverByID(ctx context.Context, id uint64) (*models.Driver, error)
	UpdateDriverLocation(ctx context.Context, id uint64, lat, lng float64) error
	UpdateDriverPushToken(ctx context.Context, id uint64, token string) error
	UpdateCustomerPushToken(ctx context.Context, id uint64, token string) error

	AddOrderRejection(ctx context.Context, orderID, driverID uint64) error
	ListOrderRejections(ctx context.Context, orderID uint64) ([]uint64, error)

	SetNotificationAction(ctx context.Context, orderCode string, action int) error
	ListNotifications(ctx context.Context, receiverRole string, receiverID uint64) ([]*models.Notification, error)
	DeleteNotification(ctx context.Context, id uint64) (int64, error)
	DeleteDriverNotifications(ctx context.Context, driverID uint64) (int64, error)
	DeleteCustomerNotifications(ctx context.Context, customerID uint64) (int64, error)
}

type Matcher interface {
	FindNearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]geomatch.Candidate, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, in notifications.ComposeInput) (uint64, error)
}

type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	repo     Repository
	matcher  Matcher
	notifier Notifier

	cache    BytesCache
	cacheTTL time.Duration

	radiusKm   float64
	candidates int
	baseURL    string
}

func New(repo Repository, matcher Matcher, notifier Notifier, cache BytesCache, cacheTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		matcher:    matcher,
		notifier:   notifier,
		cache:      cache,
		cacheTTL:   cacheTTL,
		radiusKm:   50,
		candidates: 10,
	}
}

func (s *Service) WithBaseURL(u string) *Service {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

func (s *Service) WithDispatchSettings(radiusKm float64, candidates int) *Service {
	if radiusKm > 0 {
		s.radiusKm = radiusKm
	}
	if candidates > 0 {
		s.candidates = candidates
	}
	return s
}

type SubmitOrderInput struct {
	CustomerID       uint64
	PickupAddressID  uint64
	DropoffAddressID uint64
	PackageIDs       []int64
	PackageQtys      []int64
	Amount           float64
	PaymentMethodID  uint64
}

// SubmitOrder создаёт заказ и предлагает его ближайшему водителю.
// Срыв подбора или пуша после того, как заказ записан, не откатывает заказ:
// ошибка записи — наружу, всё остальное — best-effort.
func (s *Service) SubmitOrder(ctx context.Context, in SubmitOrderInput) (*models.Order, error) {
	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.CreateOrder(ctx, models.OrderCreateInput{
		Code:             code,
		CustomerID:       in.CustomerID,
		PickupAddressID:  in.PickupAddressID,
		DropoffAddressID: in.DropoffAddressID,
		PackageIDs:       in.PackageIDs,
		PackageQtys:      in.PackageQtys,
		Amount:           in.Amount,
		PaymentMethodID:  in.PaymentMethodID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// Если в радиусе никого нет, заказ просто остаётся без оффера —
	// уведомление об этом клиент получает только при исчерпании реофферов.
	if _, err := s.offerOrder(ctx, order, nil); err != nil {
		slog.Warn("offer after submit failed", "order_code", order.Code, "error", err.Error())
	}

	return order, nil
}

func validateSubmit(in SubmitOrderInput) error {
	switch {
	case in.CustomerID == 0:
		return &ValidationError{Field: "customer_id", Message: "is required"}
	case in.PickupAddressID == 0:
		return &ValidationError{Field: "pickup_address_id", Message: "is required"}
	case in.DropoffAddressID == 0:
		return &ValidationError{Field: "dropup_address_id", Message: "is required"}
	case len(in.PackageIDs) == 0:
		return &ValidationError{Field: "package_id", Message: "is required"}
	case len(in.PackageIDs) != len(in.PackageQtys):
		return &ValidationError{Field: "package_qty", Message: "must match package_id cardinality"}
	case in.Amount <= 0:
		return &ValidationError{Field: "amount", Message: "must be positive"}
	case in.PaymentMethodID == 0:
		return &ValidationError{Field: "payment_method_id", Message: "is required"}
	}
	return nil
}

// offerOrder подбирает ближайшего водителя вне exclude и шлёт ему оффер.
// Возвращает false, если кандидатов не осталось.
func (s *Service) offerOrder(ctx context.Context, order *models.Order, exclude map[uint64]struct{}) (bool, error) {
	addr, err := s.repo.GetPickupAddress(ctx, order.PickupAddressID)
	if err != nil {
		return false, errors.Wrap(err, "get pickup address")
	}

	cands, err := s.matcher.FindNearby(ctx, addr.Latitude, addr.Longitude, s.radiusKm, s.candidates)
	if err != nil {
		return false, errors.Wrap(err, "find nearby drivers")
	}

	var next *models.Driver
	for _, c := range cands {
		if _, skip := exclude[c.Driver.ID]; skip {
			continue
		}
		next = c.Driver
		break
	}
	if next == nil {
		return false, nil
	}

	customer, err := s.repo.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		return false, errors.Wrap(err, "get customer")
	}

	customerID := order.CustomerID
	if _, err := s.notifier.Dispatch(ctx, notifications.ComposeInput{
		Kind:         models.NotificationKindOfferedToDriver,
		ActorName:    customer.Name,
		SenderID:     &customerID,
		ReceiverID:   next.ID,
		SenderRole:   models.RoleUser,
		ReceiverRole: models.RoleDriver,
		PushToken:    next.PushToken,
		OrderCode:    order.Code,
	}); err != nil {
		return false, errors.Wrap(err, "dispatch offer")
	}

	slog.Info("order offered", "order_code", order.Code, "driver_id", next.ID)
	return true, nil
}

// AcceptOrder назначает водителя на заказ. Переход pending->accepted условный:
// повторный accept (свой или чужой) получает ErrOrderConflict.
func (s *Service) AcceptOrder(ctx context.Context, driverID uint64, orderCode string) error {
	order, err := s.getOrderForUpdate(ctx, orderCode)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	n, err := s.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{
		FromStatus: models.OrderStatusPending,
		ToStatus:   models.OrderStatusAccepted,
		DriverID:   &driverID,
		PickedUpAt: &now,
	})
	if err != nil {
		return errors.Wrap(err, "accept order")
	}
	if n == 0 {
		return ErrOrderConflict
	}
	s.invalidateOrder(ctx, orderCode)

	// Дальше только side-channel: заказ уже принят, что бы ни случилось ниже.
	if err := s.repo.SetNotificationAction(ctx, orderCode, models.NotificationActionAccepted); err != nil {
		slog.Warn("set notification action failed", "order_code", orderCode, "error", err.Error())
	}
	s.notifyCustomer(ctx, order, driverID, models.NotificationKindAccepted, false)

	return nil
}

type RejectResult struct {
	Reassigned bool
}

// RejectOrder фиксирует отказ и реофферит заказ следующему по дистанции
// водителю, исключая всех отказавшихся ранее. Когда кандидаты исчерпаны,
// клиенту уходит no-driver уведомление.
func (s *Service) RejectOrder(ctx context.Context, driverID uint64, orderCode string) (*RejectResult, error) {
	order, err := s.getOrderForUpdate(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddOrderRejection(ctx, order.ID, driverID); err != nil {
		return nil, errors.Wrap(err, "record rejection")
	}

	n, err := s.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{
		FromStatus: models.OrderStatusPending,
		ToStatus:   models.OrderStatusPending,
		DriverID:   &driverID, // последний отказавшийся
	})
	if err != nil {
		return nil, errors.Wrap(err, "reject order")
	}
	if n == 0 {
		return nil, ErrOrderConflict
	}
	s.invalidateOrder(ctx, orderCode)

	if err := s.repo.SetNotificationAction(ctx, orderCode, models.NotificationActionRejected); err != nil {
		slog.Warn("set notification action failed", "order_code", orderCode, "error", err.Error())
	}

	rejected, err := s.repo.ListOrderRejections(ctx, order.ID)
	if err != nil {
		slog.Warn("list rejections failed", "order_code", orderCode, "error", err.Error())
		rejected = []uint64{driverID}
	}
	exclude := make(map[uint64]struct{}, len(rejected))
	for _, id := range rejected {
		exclude[id] = struct{}{}
	}

	offered, err := s.offerOrder(ctx, order, exclude)
	if err != nil {
		slog.Warn("re-offer failed", "order_code", orderCode, "error", err.Error())
		return &RejectResult{Reassigned: false}, nil
	}
	if offered {
		return &RejectResult{Reassigned: true}, nil
	}

	s.notifyNoDriver(ctx, order)
	return &RejectResult{Reassigned: false}, nil
}

// CompleteOrder закрывает принятый заказ. Переход accepted->completed условный.
func (s *Service) CompleteOrder(ctx context.Context, driverID uint64, orderCode string) error {
	order, err := s.getOrderForUpdate(ctx, orderCode)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	n, err := s.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{
		FromStatus:  models.OrderStatusAccepted,
		ToStatus:    models.OrderStatusCompleted,
		DriverID:    &driverID,
		DeliveredAt: &now,
	})
	if err != nil {
		return errors.Wrap(err, "complete order")
	}
	if n == 0 {
		return ErrOrderConflict
	}
	s.invalidateOrder(ctx, orderCode)

	if err := s.repo.SetNotificationAction(ctx, orderCode, models.NotificationActionCompleted); err != nil {
		slog.Warn("set notification action failed", "order_code", orderCode, "error", err.Error())
	}
	// без токена у клиента пуш молча пропускаем
	s.notifyCustomer(ctx, order, driverID, models.NotificationKindCompleted, true)

	return nil
}

func (s *Service) getOrderForUpdate(ctx context.Context, code string) (*models.Order, error) {
	order, err := s.repo.GetOrderByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgdispatch.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	return order, nil
}

func (s *Service) notifyCustomer(ctx context.Context, order *models.Order, driverID uint64, kind int, requireToken bool) {
	customer, err := s.repo.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		slog.Warn("get customer failed", "order_code", order.Code, "error", err.Error())
		return
	}
	if requireToken && customer.PushToken == "" {
		return
	}
	driver, err := s.repo.GetDriverByID(ctx, driverID)
	if err != nil {
		slog.Warn("get driver failed", "order_code", order.Code, "error", err.Error())
		return
	}

	if _, err := s.notifier.Dispatch(ctx, notifications.ComposeInput{
		Kind:         kind,
		ActorName:    driver.Name,
		SenderID:     &driverID,
		ReceiverID:   customer.ID,
		SenderRole:   models.RoleDriver,
		ReceiverRole: models.RoleUser,
		PushToken:    customer.PushToken,
		OrderCode:    order.Code,
	}); err != nil {
		slog.Warn("notify customer failed", "order_code", order.Code, "error", err.Error())
	}
}

func (s *Service) notifyNoDriver(ctx context.Context, order *models.Order) {
	customer, err := s.repo.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		slog.Warn("get customer failed", "order_code", order.Code, "error", err.Error())
		return
	}

	if _, err := s.notifier.Dispatch(ctx, notifications.ComposeInput{
		Kind:         models.NotificationKindNoDriverAvailable,
		ActorName:    "Admin",
		ReceiverID:   customer.ID,
		SenderRole:   models.RoleAdmin,
		ReceiverRole: models.RoleUser,
		PushToken:    customer.PushToken,
		OrderCode:    order.Code,
	}); err != nil {
		slog.Warn("notify no driver failed", "order_code", order.Code, "error", err.Error())
	}
}
