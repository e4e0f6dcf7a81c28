package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/model"
	"attendance-tracker/internal/store"
)

// AttendanceRepository is the attendance store.
type AttendanceRepository interface {
	GetByUserAndDate(ctx context.Context, userID bson.ObjectID, date time.Time) (*model.AttendanceRecord, error)
	GetByID(ctx context.Context, id bson.ObjectID) (*model.AttendanceRecord, error)
	CreateRecord(ctx context.Context, record *model.AttendanceRecord) error
	CompleteCheckOut(ctx context.Context, record *model.AttendanceRecord) (bool, error)
	UpdateRecord(ctx context.Context, record *model.AttendanceRecord) (bool, error)
	DeleteRecord(ctx context.Context, id bson.ObjectID) (bool, error)
	GetByUser(ctx context.Context, userID bson.ObjectID) ([]*model.AttendanceRecord, error)
	GetByDate(ctx context.Context, date time.Time) ([]*model.AttendanceRecord, error)
	Find(ctx context.Context, f store.AttendanceFilter) ([]*model.AttendanceRecord, error)
}

type AttendanceService struct {
	store AttendanceRepository
	cal   Calendar
}

func NewAttendanceService(store AttendanceRepository, cal Calendar) *AttendanceService {
	return &AttendanceService{store: store, cal: cal}
}

// CheckIn opens today's record for the user.
func (s *AttendanceService) CheckIn(ctx context.Context, userID bson.ObjectID) (*model.AttendanceRecord, error) {
	now := s.cal.now()
	today := s.cal.Midnight(now)

	record, err := s.store.GetByUserAndDate(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("get today record: %w", err)
	}
	if record != nil {
		return nil, ErrAlreadyCheckedIn
	}

	record = &model.AttendanceRecord{
		UserID:  userID,
		Date:    today,
		CheckIn: &now,
		Status:  s.cal.StatusFor(&now),
	}
	if err := s.store.CreateRecord(ctx, record); err != nil {
		// lost a race with a concurrent check-in
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("create record: %w", err)
	}
	return record, nil
}

// CheckOut closes today's record and computes the worked hours.
func (s *AttendanceService) CheckOut(ctx context.Context, userID bson.ObjectID) (*model.AttendanceRecord, error) {
	now := s.cal.now()

	record, err := s.store.GetByUserAndDate(ctx, userID, s.cal.Midnight(now))
	if err != nil {
		return nil, fmt.Errorf("get today record: %w", err)
	}
	if record == nil {
		return nil, ErrNoCheckIn
	}
	if record.CheckOut != nil {
		return nil, ErrAlreadyCheckedOut
	}

	record.CheckOut = &now
	record.RecomputeWorkHours()
	ok, err := s.store.CompleteCheckOut(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyCheckedOut
	}
	return record, nil
}

// History returns all of the user's records, newest first.
func (s *AttendanceService) History(ctx context.Context, userID bson.ObjectID) ([]*model.AttendanceRecord, error) {
	records, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if records == nil {
		records = []*model.AttendanceRecord{}
	}
	return records, nil
}
