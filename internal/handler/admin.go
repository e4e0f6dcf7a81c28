package handler

import (
	"context"
	"io"
	"log"
	"net/http"

	"attendance-tracker/internal/export"
	"attendance-tracker/internal/model"
	"attendance-tracker/internal/service"
)

// AdminService is service.AdminService.
type AdminService interface {
	List(ctx context.Context, actor *model.User) ([]*model.AttendanceView, error)
	Filter(ctx context.Context, actor *model.User, f service.AdminFilter) ([]*model.AttendanceView, error)
	ExportRows(ctx context.Context, actor *model.User, f service.AdminFilter) ([]export.Row, error)
	Update(ctx context.Context, actor *model.User, id string, in service.UpdateInput) (*model.AttendanceRecord, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	Dashboard(ctx context.Context, actor *model.User) (*service.AdminDashboard, error)
}

type AdminHandler struct {
	svc  AdminService
	auth Authenticator
}

func NewAdminHandler(svc AdminService, auth Authenticator) *AdminHandler {
	return &AdminHandler{svc: svc, auth: auth}
}

const exportBaseName = "filtered_attendance_report"

type exportFormat struct {
	ext         string
	contentType string
	write       func(io.Writer, []export.Row) error
}

var exportFormats = map[string]exportFormat{
	"csv":  {ext: "csv", contentType: "text/csv", write: export.WriteCSV},
	"pdf":  {ext: "pdf", contentType: "application/pdf", write: export.WritePDF},
	"xlsx": {ext: "xlsx", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", write: export.WriteXLSX},
}

type updateRequest struct {
	CheckIn  *string `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
}

func filterFromQuery(r *http.Request) service.AdminFilter {
	q := r.URL.Query()
	return service.AdminFilter{
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
		EmployeeID: q.Get("employeeId"),
		Department: q.Get("department"),
	}
}

func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AdminHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Filter(r.Context(), UserFromContext(r.Context()), filterFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleExport streams the filtered listing as a csv, pdf or xlsx attachment.
func (h *AdminHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormats[r.PathValue("format")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	rows, err := h.svc.ExportRows(r.Context(), UserFromContext(r.Context()), filterFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+exportBaseName+"."+format.ext)
	if err := format.write(w, rows); err != nil {
		// headers are already sent
		log.Printf("ERROR export %s: %v", format.ext, err)
	}
}

func (h *AdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.svc.Update(r.Context(), UserFromContext(r.Context()), r.PathValue("id"), service.UpdateInput{
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"msg":        msg(r, "attendance.updated"),
		"attendance": record,
	})
}

func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), UserFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMsg(w, r, http.StatusOK, "attendance.deleted")
}

// HandleDashboard returns every user and every joined record.
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/attendance/admin", RequireAdmin(h.auth, h.HandleList))
	mux.HandleFunc("GET /api/attendance/admin/filter", RequireAdmin(h.auth, h.HandleFilter))
	mux.HandleFunc("GET /api/attendance/admin/export/{format}", RequireAdmin(h.auth, h.HandleExport))
	mux.HandleFunc("PUT /api/attendance/admin/update/{id}", RequireAdmin(h.auth, h.HandleUpdate))
	mux.HandleFunc("DELETE /api/attendance/admin/delete/{id}", RequireAdmin(h.auth, h.HandleDelete))
	mux.HandleFunc("GET /api/dashboard/admin", RequireAdmin(h.auth, h.HandleDashboard))
}
