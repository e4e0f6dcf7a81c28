package handler

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/model"
)

// AttendanceService is the employee side of service.AttendanceService.
type AttendanceService interface {
	CheckIn(ctx context.Context, userID bson.ObjectID) (*model.AttendanceRecord, error)
	CheckOut(ctx context.Context, userID bson.ObjectID) (*model.AttendanceRecord, error)
	History(ctx context.Context, userID bson.ObjectID) ([]*model.AttendanceRecord, error)
}

type AttendanceHandler struct {
	svc  AttendanceService
	auth Authenticator
}

func NewAttendanceHandler(svc AttendanceService, auth Authenticator) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, auth: auth}
}

// HandleCheckIn opens today's record for the caller.
func (h *AttendanceHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	record, err := h.svc.CheckIn(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"msg":        msg(r, "attendance.checked_in"),
		"attendance": record,
	})
}

// HandleCheckOut closes today's record for the caller.
func (h *AttendanceHandler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	record, err := h.svc.CheckOut(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"msg":        msg(r, "attendance.checked_out"),
		"attendance": record,
	})
}

func (h *AttendanceHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	records, err := h.svc.History(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleEmployeeDashboard returns the caller's profile and full history.
func (h *AttendanceHandler) HandleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	records, err := h.svc.History(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":              user,
		"attendanceHistory": records,
	})
}

func (h *AttendanceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/attendance/check-in", RequireAuth(h.auth, h.HandleCheckIn))
	mux.HandleFunc("POST /api/attendance/check-out", RequireAuth(h.auth, h.HandleCheckOut))
	mux.HandleFunc("GET /api/attendance/history", RequireAuth(h.auth, h.HandleHistory))
	mux.HandleFunc("GET /api/dashboard/employee", RequireAuth(h.auth, h.HandleEmployeeDashboard))
}
