package dispatch_api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/krishn-cti/remit-go/internal/services/dispatch"
)

// package_id и package_qty приходят на проводе склеенными запятыми ("1,2,3").
// Поле status клиенты присылают, но статус всегда назначает сервер.
type submitOrderRequest struct {
	PickupAddressID  uint64  `json:"pickup_address_id"`
	DropoffAddressID uint64  `json:"dropup_address_id"`
	PackageID        string  `json:"package_id"`
	PackageQty       string  `json:"package_qty"`
	Amount           float64 `json:"amount"`
	PaymentMethodID  uint64  `json:"payment_method_id"`
	Status           *int    `json:"status"`
}

func parseCommaInts(s string) ([]int64, bool) {
	if s == "" {
		return nil, true
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return nil, false
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

type orderResponse struct {
	ID               uint64     `json:"id"`
	PackageNo        string     `json:"package_no"`
	CustomerID       uint64     `json:"customer_id"`
	PickupAddressID  uint64     `json:"pickup_address_id"`
	DropoffAddressID uint64     `json:"dropup_address_id"`
	PackageIDs       []int64    `json:"package_id"`
	PackageQtys      []int64    `json:"package_qty"`
	Amount           float64    `json:"amount"`
	PaymentMethodID  uint64     `json:"payment_method_id"`
	DeliveredBy      *uint64    `json:"delivered_by,omitempty"`
	Status           int        `json:"status"`
	PickedUpAt       *time.Time `json:"pickedup_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type orderSummaryResponse struct {
	orderResponse
	DriverName      string `json:"driver_name,omitempty"`
	DriverImage     string `json:"driver_image,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerImage   string `json:"customer_image,omitempty"`
	PickupLocation  string `json:"pickup_location,omitempty"`
	DropoffLocation string `json:"dropup_location,omitempty"`
}

func toOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		ID:               o.ID,
		PackageNo:        o.Code,
		CustomerID:       o.CustomerID,
		PickupAddressID:  o.PickupAddressID,
		DropoffAddressID: o.DropoffAddressID,
		PackageIDs:       o.PackageIDs,
		PackageQtys:      o.PackageQtys,
		Amount:           o.Amount,
		PaymentMethodID:  o.PaymentMethodID,
		DeliveredBy:      o.DriverID,
		Status:           o.Status,
		PickedUpAt:       o.PickedUpAt,
		DeliveredAt:      o.DeliveredAt,
		CreatedAt:        o.CreatedAt,
	}
}

func toOrderSummaries(in []*models.OrderSummary) []orderSummaryResponse {
	out := make([]orderSummaryResponse, 0, len(in))
	for _, s := range in {
		out = append(out, orderSummaryResponse{
			orderResponse:   toOrderResponse(&s.Order),
			DriverName:      s.DriverName,
			DriverImage:     s.DriverImage,
			CustomerName:    s.CustomerName,
			CustomerImage:   s.CustomerImage,
			PickupLocation:  s.PickupLocation,
			DropoffLocation: s.DropoffLocation,
		})
	}
	return out
}

func (a *DispatchAPI) submitOrder(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(w, r)
	if !ok {
		return
	}
	var req submitOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pkgIDs, ok := parseCommaInts(req.PackageID)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "package_id: must be comma separated numbers")
		return
	}
	pkgQtys, ok := parseCommaInts(req.PackageQty)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "package_qty: must be comma separated numbers")
		return
	}
	if req.Status != nil && (*req.Status < 0 || *req.Status > 2) {
		writeError(w, r, http.StatusBadRequest, "status: must be one of 0, 1, 2")
		return
	}

	order, err := a.svc.SubmitOrder(r.Context(), dispatch.SubmitOrderInput{
		CustomerID:       custID,
		PickupAddressID:  req.PickupAddressID,
		DropoffAddressID: req.DropoffAddressID,
		PackageIDs:       pkgIDs,
		PackageQtys:      pkgQtys,
		Amount:           req.Amount,
		PaymentMethodID:  req.PaymentMethodID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toOrderResponse(order))
}

func (a *DispatchAPI) getOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := customerID(w, r); !ok {
		return
	}
	order, err := a.svc.GetOrderByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(order))
}

func (a *DispatchAPI) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(w, r)
	if !ok {
		return
	}
	orders, err := a.svc.ListCustomerOrders(r.Context(), custID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderSummaries(orders))
}

func (a *DispatchAPI) listDriverOrders(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	orders, err := a.svc.ListDriverOrders(r.Context(), drvID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderSummaries(orders))
}

type orderActionRequest struct {
	PackageNo string `json:"package_no"`
}

func (a *DispatchAPI) acceptOrder(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	var req orderActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PackageNo == "" {
		writeError(w, r, http.StatusBadRequest, "package_no: is required")
		return
	}
	if err := a.svc.AcceptOrder(r.Context(), drvID, req.PackageNo); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "package accepted"})
}

type rejectOrderResponse struct {
	Message    string `json:"message"`
	Reassigned bool   `json:"reassigned"`
}

func (a *DispatchAPI) rejectOrder(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	var req orderActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PackageNo == "" {
		writeError(w, r, http.StatusBadRequest, "package_no: is required")
		return
	}
	res, err := a.svc.RejectOrder(r.Context(), drvID, req.PackageNo)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	msg := "package offered to another driver"
	if !res.Reassigned {
		msg = "no drivers available"
	}
	writeJSON(w, r, http.StatusOK, rejectOrderResponse{Message: msg, Reassigned: res.Reassigned})
}

func (a *DispatchAPI) completeOrder(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	var req orderActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PackageNo == "" {
		writeError(w, r, http.StatusBadRequest, "package_no: is required")
		return
	}
	if err := a.svc.CompleteOrder(r.Context(), drvID, req.PackageNo); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "package delivered"})
}
