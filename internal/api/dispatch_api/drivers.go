package dispatch_api

import (
	"net/http"
)

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (a *DispatchAPI) updateDriverLocation(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	var req updateLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, r, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	if err := a.svc.UpdateDriverLocation(r.Context(), drvID, *req.Latitude, *req.Longitude); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "location updated"})
}

type updateTokenRequest struct {
	FCMToken string `json:"fcm_token"`
}

func (a *DispatchAPI) updateDriverToken(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	var req updateTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.svc.UpdateDriverPushToken(r.Context(), drvID, req.FCMToken); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "token updated"})
}

func (a *DispatchAPI) updateCustomerToken(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(w, r)
	if !ok {
		return
	}
	var req updateTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.svc.UpdateCustomerPushToken(r.Context(), custID, req.FCMToken); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "token updated"})
}
