package dispatch_api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/krishn-cti/remit-go/internal/services/dispatch"
)

// Service — срез диспетчерского сервиса, который нужен HTTP-слою.
type Service interface {
	SubmitOrder(ctx context.Context, in dispatch.SubmitOrderInput) (*models.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	ListCustomerOrders(ctx context.Context, customerID uint64) ([]*models.OrderSummary, error)
	ListDriverOrders(ctx context.Context, driverID uint64) ([]*models.OrderSummary, error)
	AcceptOrder(ctx context.Context, driverID uint64, orderCode string) error
	RejectOrder(ctx context.Context, driverID uint64, orderCode string) (*dispatch.RejectResult, error)
	CompleteOrder(ctx context.Context, driverID uint64, orderCode string) error
	UpdateDriverLocation(ctx context.Context, driverID uint64, lat, lng float64) error
	UpdateDriverPushToken(ctx context.Context, driverID uint64, token string) error
	UpdateCustomerPushToken(ctx context.Context, customerID uint64, token string) error
	ListNotifications(ctx context.Context, receiverRole string, receiverID uint64) ([]*models.Notification, error)
	DeleteNotification(ctx context.Context, id uint64) error
	DeleteDriverNotifications(ctx context.Context, driverID uint64) (int64, error)
	DeleteCustomerNotifications(ctx context.Context, customerID uint64) (int64, error)
}

type DispatchAPI struct {
	svc Service
}

func New(svc Service) *DispatchAPI {
	return &DispatchAPI{svc: svc}
}

func (a *DispatchAPI) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", a.healthz)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/packages", a.submitOrder)
		r.Get("/packages", a.listCustomerOrders)
		r.Get("/packages/{code}", a.getOrder)
		r.Put("/token", a.updateCustomerToken)
		r.Get("/notifications", a.listCustomerNotifications)
		r.Delete("/notifications", a.deleteCustomerNotifications)
	})

	r.Route("/api/driver", func(r chi.Router) {
		r.Get("/packages", a.listDriverOrders)
		r.Post("/packages/accept", a.acceptOrder)
		r.Post("/packages/reject", a.rejectOrder)
		r.Post("/packages/complete", a.completeOrder)
		r.Put("/location", a.updateDriverLocation)
		r.Put("/token", a.updateDriverToken)
		r.Get("/notifications", a.listDriverNotifications)
		r.Delete("/notifications", a.deleteDriverNotifications)
	})

	r.Delete("/api/notifications/{id}", a.deleteNotification)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "route not found")
	})

	return r
}

func (a *DispatchAPI) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
