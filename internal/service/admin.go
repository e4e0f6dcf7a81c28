package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/export"
	"attendance-tracker/internal/model"
	"attendance-tracker/internal/store"
)

// AdminService serves the administrator views over all attendance records.
// Every method checks the actor's role itself.
type AdminService struct {
	records AttendanceRepository
	users   UserRepository
	cal     Calendar
}

func NewAdminService(records AttendanceRepository, users UserRepository, cal Calendar) *AdminService {
	return &AdminService{records: records, users: users, cal: cal}
}

// AdminFilter holds the raw query parameters of an admin listing.
type AdminFilter struct {
	StartDate  string
	EndDate    string
	EmployeeID string
	Department string
}

// UpdateInput carries the optional timestamps of an admin edit.
type UpdateInput struct {
	CheckIn  *string
	CheckOut *string
}

type AdminDashboard struct {
	Users      []*model.User           `json:"users"`
	Attendance []*model.AttendanceView `json:"attendance"`
}

func requireAdmin(actor *model.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// List returns every record with its owner joined in.
func (s *AdminService) List(ctx context.Context, actor *model.User) ([]*model.AttendanceView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	records, err := s.records.Find(ctx, store.AttendanceFilter{})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return s.join(ctx, records)
}

// Filter returns the records matching every given criterion.
func (s *AdminService) Filter(ctx context.Context, actor *model.User, f AdminFilter) ([]*model.AttendanceView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	q, err := s.buildFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	records, err := s.records.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter attendance: %w", err)
	}
	return s.join(ctx, records)
}

// ExportRows runs Filter and formats the result for a file download.
func (s *AdminService) ExportRows(ctx context.Context, actor *model.User, f AdminFilter) ([]export.Row, error) {
	views, err := s.Filter(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return export.NewRows(views, s.cal.loc()), nil
}

func (s *AdminService) buildFilter(ctx context.Context, f AdminFilter) (store.AttendanceFilter, error) {
	var q store.AttendanceFilter

	start, end := strings.TrimSpace(f.StartDate), strings.TrimSpace(f.EndDate)
	if start != "" && end != "" {
		from, err := s.cal.ParseDate(start)
		if err != nil {
			return q, fmt.Errorf("%w: startDate: %v", ErrValidation, err)
		}
		to, err := s.cal.ParseDate(end)
		if err != nil {
			return q, fmt.Errorf("%w: endDate: %v", ErrValidation, err)
		}
		q.From, q.To = &from, &to
	}

	if id := strings.TrimSpace(f.EmployeeID); id != "" {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return q, fmt.Errorf("%w: employeeId: %v", ErrValidation, err)
		}
		q.UserID = &oid
		return q, nil
	}

	if dept := strings.TrimSpace(f.Department); dept != "" {
		users, err := s.users.ListByDepartment(ctx, dept)
		if err != nil {
			return q, fmt.Errorf("list department users: %w", err)
		}
		q.UserIDs = make([]bson.ObjectID, 0, len(users))
		for _, u := range users {
			q.UserIDs = append(q.UserIDs, u.ID)
		}
	}
	return q, nil
}

// Update sets the provided timestamps of a record. Work hours are recomputed
// only when both timestamps end up present.
func (s *AdminService) Update(ctx context.Context, actor *model.User, id string, in UpdateInput) (*model.AttendanceRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id", ErrValidation)
	}

	record, err := s.records.GetByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}

	if in.CheckIn != nil && *in.CheckIn != "" {
		t, err := s.cal.ParseTimestamp(*in.CheckIn)
		if err != nil {
			return nil, fmt.Errorf("%w: checkIn: %v", ErrValidation, err)
		}
		record.CheckIn = &t
	}
	if in.CheckOut != nil && *in.CheckOut != "" {
		t, err := s.cal.ParseTimestamp(*in.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("%w: checkOut: %v", ErrValidation, err)
		}
		record.CheckOut = &t
	}
	if record.CheckIn != nil && record.CheckOut != nil && record.CheckOut.Before(*record.CheckIn) {
		return nil, fmt.Errorf("%w: checkOut is before checkIn", ErrValidation)
	}
	record.RecomputeWorkHours()
	record.Status = s.cal.StatusFor(record.CheckIn)

	ok, err := s.records.UpdateRecord(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

// Delete removes a record.
func (s *AdminService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id", ErrValidation)
	}
	ok, err := s.records.DeleteRecord(ctx, oid)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Dashboard returns all users and all joined records.
func (s *AdminService) Dashboard(ctx context.Context, actor *model.User) (*AdminDashboard, error) {
	views, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return &AdminDashboard{Users: users, Attendance: views}, nil
}

// join attaches each record's owner, looked up in one batch.
func (s *AdminService) join(ctx context.Context, records []*model.AttendanceRecord) ([]*model.AttendanceView, error) {
	seen := make(map[bson.ObjectID]struct{}, len(records))
	ids := make([]bson.ObjectID, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.UserID]; !ok {
			seen[r.UserID] = struct{}{}
			ids = append(ids, r.UserID)
		}
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	byID := make(map[bson.ObjectID]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]*model.AttendanceView, 0, len(records))
	for _, r := range records {
		views = append(views, model.NewAttendanceView(r, byID[r.UserID]))
	}
	return views, nil
}
