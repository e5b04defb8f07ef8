package dispatch_api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krishn-cti/remit-go/internal/models"
)

type notificationResponse struct {
	ID           uint64    `json:"id"`
	SendFromID   *uint64   `json:"send_from_id,omitempty"`
	SendToID     uint64    `json:"send_to_id"`
	PackageNo    string    `json:"package_no"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Kind         int       `json:"notification_type"`
	Action       int       `json:"notification_action"`
	SenderRole   string    `json:"is_sender_role"`
	ReceiverRole string    `json:"is_receiver_role"`
	CreatedAt    time.Time `json:"created_at"`
}

func toNotificationResponses(in []*models.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(in))
	for _, n := range in {
		out = append(out, notificationResponse{
			ID:           n.ID,
			SendFromID:   n.SendFromID,
			SendToID:     n.SendToID,
			PackageNo:    n.OrderCode,
			Title:        n.Title,
			Body:         n.Body,
			Kind:         n.Kind,
			Action:       n.Action,
			SenderRole:   n.SenderRole,
			ReceiverRole: n.ReceiverRole,
			CreatedAt:    n.CreatedAt,
		})
	}
	return out
}

func (a *DispatchAPI) listCustomerNotifications(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(w, r)
	if !ok {
		return
	}
	ns, err := a.svc.ListNotifications(r.Context(), models.RoleUser, custID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toNotificationResponses(ns))
}

func (a *DispatchAPI) listDriverNotifications(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	ns, err := a.svc.ListNotifications(r.Context(), models.RoleDriver, drvID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toNotificationResponses(ns))
}

func (a *DispatchAPI) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := a.svc.DeleteNotification(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "notification deleted"})
}

type deleteAllResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func (a *DispatchAPI) deleteDriverNotifications(w http.ResponseWriter, r *http.Request) {
	drvID, ok := driverID(w, r)
	if !ok {
		return
	}
	n, err := a.svc.DeleteDriverNotifications(r.Context(), drvID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deleteAllResponse{Message: "notifications deleted", Deleted: n})
}

func (a *DispatchAPI) deleteCustomerNotifications(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(w, r)
	if !ok {
		return
	}
	n, err := a.svc.DeleteCustomerNotifications(r.Context(), custID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deleteAllResponse{Message: "notifications deleted", Deleted: n})
}
