package dispatch_api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/krishn-cti/remit-go/internal/services/dispatch"
	"github.com/pkg/errors"
)

const bodyLimit = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode failed", "req_id", middleware.GetReqID(r.Context()), "error", err.Error())
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errResponse{Error: msg})
}

// writeServiceError переводит ошибки сервиса в статусы; всё неизвестное — 500
// без деталей наружу.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *dispatch.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Error())
	case errors.Is(err, dispatch.ErrOrderNotFound),
		errors.Is(err, dispatch.ErrDriverNotFound),
		errors.Is(err, dispatch.ErrCustomerNotFound),
		errors.Is(err, dispatch.ErrNotificationNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, dispatch.ErrOrderConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "req_id", middleware.GetReqID(r.Context()), "error", err.Error())
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}

// Личность вызывающего приходит из шлюза аутентификации в заголовках.
func identityFromHeader(w http.ResponseWriter, r *http.Request, header string) (uint64, bool) {
	raw := r.Header.Get(header)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, r, http.StatusUnauthorized, "missing or invalid "+header)
		return 0, false
	}
	return id, true
}

func customerID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	return identityFromHeader(w, r, "X-User-ID")
}

func driverID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	return identityFromHeader(w, r, "X-Driver-ID")
}
