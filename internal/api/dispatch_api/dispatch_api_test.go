package dispatch_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/krishn-cti/remit-go/internal/services/dispatch"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	orders map[string]*models.Order

	submitErr   error
	acceptErr   error
	completeErr error
	rejectRes   *dispatch.RejectResult
	rejectErr   error

	lastDriverID uint64
	lastCode     string
	lastLat      float64
	lastLng      float64
	lastToken    string
}

func newFakeService() *fakeService {
	return &fakeService{
		orders:    make(map[string]*models.Order),
		rejectRes: &dispatch.RejectResult{Reassigned: true},
	}
}

func (s *fakeService) SubmitOrder(_ context.Context, in dispatch.SubmitOrderInput) (*models.Order, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	o := &models.Order{
		ID:               1,
		Code:             "AB12CD",
		CustomerID:       in.CustomerID,
		PickupAddressID:  in.PickupAddressID,
		DropoffAddressID: in.DropoffAddressID,
		PackageIDs:       in.PackageIDs,
		PackageQtys:      in.PackageQtys,
		Amount:           in.Amount,
		PaymentMethodID:  in.PaymentMethodID,
		Status:           models.OrderStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	s.orders[o.Code] = o
	return o, nil
}

func (s *fakeService) GetOrderByCode(_ context.Context, code string) (*models.Order, error) {
	o, ok := s.orders[code]
	if !ok {
		return nil, dispatch.ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeService) ListCustomerOrders(context.Context, uint64) ([]*models.OrderSummary, error) {
	var out []*models.OrderSummary
	for _, o := range s.orders {
		out = append(out, &models.OrderSummary{Order: *o, DriverName: "Ravi"})
	}
	return out, nil
}

func (s *fakeService) ListDriverOrders(context.Context, uint64) ([]*models.OrderSummary, error) {
	return nil, nil
}

func (s *fakeService) AcceptOrder(_ context.Context, driverID uint64, code string) error {
	s.lastDriverID, s.lastCode = driverID, code
	return s.acceptErr
}

func (s *fakeService) RejectOrder(_ context.Context, driverID uint64, code string) (*dispatch.RejectResult, error) {
	s.lastDriverID, s.lastCode = driverID, code
	if s.rejectErr != nil {
		return nil, s.rejectErr
	}
	return s.rejectRes, nil
}

func (s *fakeService) CompleteOrder(_ context.Context, driverID uint64, code string) error {
	s.lastDriverID, s.lastCode = driverID, code
	return s.completeErr
}

func (s *fakeService) UpdateDriverLocation(_ context.Context, driverID uint64, lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return &dispatch.ValidationError{Field: "latitude", Message: "out of range"}
	}
	s.lastDriverID, s.lastLat, s.lastLng = driverID, lat, lng
	return nil
}

func (s *fakeService) UpdateDriverPushToken(_ context.Context, driverID uint64, token string) error {
	if token == "" {
		return &dispatch.ValidationError{Field: "fcm_token", Message: "is required"}
	}
	s.lastDriverID, s.lastToken = driverID, token
	return nil
}

func (s *fakeService) UpdateCustomerPushToken(_ context.Context, customerID uint64, token string) error {
	if token == "" {
		return &dispatch.ValidationError{Field: "fcm_token", Message: "is required"}
	}
	s.lastToken = token
	return nil
}

func (s *fakeService) ListNotifications(_ context.Context, role string, id uint64) ([]*models.Notification, error) {
	return []*models.Notification{{
		ID:           7,
		SendToID:     id,
		OrderCode:    "AB12CD",
		Title:        "New Package Available",
		Kind:         models.NotificationKindOfferedToDriver,
		ReceiverRole: role,
		CreatedAt:    time.Now().UTC(),
	}}, nil
}

func (s *fakeService) DeleteNotification(_ context.Context, id uint64) error {
	if id == 404 {
		return dispatch.ErrNotificationNotFound
	}
	return nil
}

func (s *fakeService) DeleteDriverNotifications(context.Context, uint64) (int64, error) {
	return 3, nil
}

func (s *fakeService) DeleteCustomerNotifications(context.Context, uint64) (int64, error) {
	return 2, nil
}

func newTestServer(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := newFakeService()
	srv := httptest.NewServer(New(svc).Routes())
	t.Cleanup(srv.Close)
	return svc, srv
}

func doReq(t *testing.T, method, url string, headers map[string]string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

var asUser = map[string]string{"X-User-ID": "1"}
var asDriver = map[string]string{"X-Driver-ID": "101"}

func TestSubmitOrder(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doReq(t, http.MethodPost, srv.URL+"/api/user/packages", asUser, map[string]any{
		"pickup_address_id": 10,
		"dropup_address_id": 11,
		"package_id":        "1,2",
		"package_qty":       "2,1",
		"amount":            99.5,
		"payment_method_id": 1,
		"status":            0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	require.Equal(t, "AB12CD", body["package_no"])
	require.EqualValues(t, 0, body["status"])
}

func TestSubmitOrderRejectsMalformedPackageLists(t *testing.T) {
	_, srv := newTestServer(t)

	for _, bad := range []string{"1,", ",2", "1,x", "1, 2", "-1"} {
		resp := doReq(t, http.MethodPost, srv.URL+"/api/user/packages", asUser, map[string]any{
			"pickup_address_id": 10,
			"dropup_address_id": 11,
			"package_id":        bad,
			"package_qty":       "1",
			"amount":            99.5,
			"payment_method_id": 1,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "package_id=%q", bad)
		body := decodeBody[map[string]string](t, resp)
		require.Equal(t, "package_id: must be comma separated numbers", body["error"])
	}
}

func TestSubmitOrderRejectsUnknownStatus(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doReq(t, http.MethodPost, srv.URL+"/api/user/packages", asUser, map[string]any{
		"pickup_address_id": 10,
		"dropup_address_id": 11,
		"package_id":        "1",
		"package_qty":       "1",
		"amount":            99.5,
		"payment_method_id": 1,
		"status":            7,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "status: must be one of 0, 1, 2", body["error"])
}

func TestSubmitOrderRequiresIdentity(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doReq(t, http.MethodPost, srv.URL+"/api/user/packages", nil, map[string]any{})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitOrderValidationError(t *testing.T) {
	svc, srv := newTestServer(t)
	svc.submitErr = &dispatch.ValidationError{Field: "amount", Message: "must be positive"}

	resp := doReq(t, http.MethodPost, srv.URL+"/api/user/packages", asUser, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "amount: must be positive", body["error"])
}

func TestSubmitOrderBadJSON(t *testing.T) {
	_, srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/user/packages", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrder(t *testing.T) {
	svc, srv := newTestServer(t)
	svc.orders["AB12CD"] = &models.Order{ID: 1, Code: "AB12CD", CustomerID: 1}

	resp := doReq(t, http.MethodGet, srv.URL+"/api/user/packages/AB12CD", asUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodGet, srv.URL+"/api/user/packages/ZZZZZZ", asUser, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAcceptOrder(t *testing.T) {
	svc, srv := newTestServer(t)

	resp := doReq(t, http.MethodPost, srv.URL+"/api/driver/packages/accept", asDriver, map[string]string{"package_no": "AB12CD"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint64(101), svc.lastDriverID)
	require.Equal(t, "AB12CD", svc.lastCode)
}

func TestAcceptOrderConflict(t *testing.T) {
	svc, srv := newTestServer(t)
	svc.acceptErr = dispatch.ErrOrderConflict

	resp := doReq(t, http.MethodPost, srv.URL+"/api/driver/packages/accept", asDriver, map[string]string{"package_no": "AB12CD"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAcceptOrderMissingCode(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doReq(t, http.MethodPost, srv.URL+"/api/driver/packages/accept", asDriver, map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRejectOrder(t *testing.T) {
	svc, srv := newTestServer(t)

	resp := doReq(t, http.MethodPost, srv.URL+"/api/driver/packages/reject", asDriver, map[string]string{"package_no": "AB12CD"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[rejectOrderResponse](t, resp)
	require.True(t, body.Reassigned)

	svc.rejectRes = &dispatch.RejectResult{Reassigned: false}
	resp = doReq(t, http.MethodPost, srv.URL+"/api/driver/packages/reject", asDriver, map[string]string{"package_no": "AB12CD"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody[rejectOrderResponse](t, resp)
	require.False(t, body.Reassigned)
	require.Equal(t, "no drivers available", body.Message)
}

func TestCompleteOrder(t *testing.T) {
	svc, srv := newTestServer(t)

	resp := doReq(t, http.MethodPost, srv.URL+"/api/driver/packages/complete", asDriver, map[string]string{"package_no": "AB12CD"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "AB12CD", svc.lastCode)

	svc.completeErr = dispatch.ErrOrderNotFound
	resp = doReq(t, http.MethodPost, srv.URL+"/api/driver/packages/complete", asDriver, map[string]string{"package_no": "NOPE01"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateDriverLocation(t *testing.T) {
	svc, srv := newTestServer(t)

	resp := doReq(t, http.MethodPut, srv.URL+"/api/driver/location", asDriver, map[string]float64{"latitude": 12.9, "longitude": 77.6})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.InDelta(t, 12.9, svc.lastLat, 1e-9)

	resp = doReq(t, http.MethodPut, srv.URL+"/api/driver/location", asDriver, map[string]float64{"latitude": 12.9})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doReq(t, http.MethodPut, srv.URL+"/api/driver/location", asDriver, map[string]float64{"latitude": 95, "longitude": 77.6})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateDriverToken(t *testing.T) {
	svc, srv := newTestServer(t)

	resp := doReq(t, http.MethodPut, srv.URL+"/api/driver/token", asDriver, map[string]string{"fcm_token": "tok-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "tok-1", svc.lastToken)

	resp = doReq(t, http.MethodPut, srv.URL+"/api/driver/token", asDriver, map[string]string{"fcm_token": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateCustomerToken(t *testing.T) {
	svc, srv := newTestServer(t)

	resp := doReq(t, http.MethodPut, srv.URL+"/api/user/token", asUser, map[string]string{"fcm_token": "cust-tok"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "cust-tok", svc.lastToken)

	resp = doReq(t, http.MethodPut, srv.URL+"/api/user/token", nil, map[string]string{"fcm_token": "x"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListNotifications(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doReq(t, http.MethodGet, srv.URL+"/api/driver/notifications", asDriver, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[[]map[string]any](t, resp)
	require.Len(t, body, 1)
	require.Equal(t, "AB12CD", body[0]["package_no"])
	require.Equal(t, "driver", body[0]["is_receiver_role"])
}

func TestDeleteNotification(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doReq(t, http.MethodDelete, srv.URL+"/api/notifications/7", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodDelete, srv.URL+"/api/notifications/404", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doReq(t, http.MethodDelete, srv.URL+"/api/notifications/abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteAllNotifications(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doReq(t, http.MethodDelete, srv.URL+"/api/driver/notifications", asDriver, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[deleteAllResponse](t, resp)
	require.EqualValues(t, 3, body.Deleted)

	resp = doReq(t, http.MethodDelete, srv.URL+"/api/user/notifications", asUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody[deleteAllResponse](t, resp)
	require.EqualValues(t, 2, body.Deleted)
}

func TestInternalErrorHidesDetails(t *testing.T) {
	svc, srv := newTestServer(t)
	svc.submitErr = errors.New("pg: connection refused")

	resp := doReq(t, http.MethodPost, srv.URL+"/api/user/packages", asUser, map[string]any{})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "internal error", body["error"])
}

func TestHealthzAndNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doReq(t, http.MethodGet, srv.URL+"/healthz", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodGet, srv.URL+"/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
