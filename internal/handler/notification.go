package handler

import (
	"context"
	"errors"
	"net/http"

	"attendance-tracker/internal/model"
	"attendance-tracker/internal/service"
)

// NotificationService is service.NotificationService.
type NotificationService interface {
	PublicKey() string
	Subscribe(ctx context.Context, user *model.User, endpoint string, keys model.PushKeys) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, user *model.User, endpoint string) error
}

type NotificationHandler struct {
	svc  NotificationService
	auth Authenticator
}

func NewNotificationHandler(svc NotificationService, auth Authenticator) *NotificationHandler {
	return &NotificationHandler{svc: svc, auth: auth}
}

type subscribeRequest struct {
	Endpoint string         `json:"endpoint" validate:"required,url"`
	Keys     model.PushKeys `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// HandlePublicKey returns the VAPID key browsers subscribe with.
func (h *NotificationHandler) HandlePublicKey(w http.ResponseWriter, r *http.Request) {
	key := h.svc.PublicKey()
	if key == "" {
		writeMsg(w, r, http.StatusServiceUnavailable, "notify.not_configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

func (h *NotificationHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	if h.svc.PublicKey() == "" {
		writeMsg(w, r, http.StatusServiceUnavailable, "notify.not_configured")
		return
	}
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.svc.Subscribe(r.Context(), UserFromContext(r.Context()), req.Endpoint, req.Keys); err != nil {
		writeError(w, r, err)
		return
	}
	writeMsg(w, r, http.StatusCreated, "notify.subscribed")
}

func (h *NotificationHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.svc.Unsubscribe(r.Context(), UserFromContext(r.Context()), req.Endpoint)
	if errors.Is(err, service.ErrNotFound) {
		writeMsg(w, r, http.StatusNotFound, "notify.subscription_not_found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMsg(w, r, http.StatusOK, "notify.unsubscribed")
}

func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notifications/vapid-public-key", h.HandlePublicKey)
	mux.HandleFunc("POST /api/notifications/subscribe", RequireAuth(h.auth, h.HandleSubscribe))
	mux.HandleFunc("DELETE /api/notifications/subscribe", RequireAuth(h.auth, h.HandleUnsubscribe))
}
