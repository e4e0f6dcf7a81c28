package service

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/i18n"
	"attendance-tracker/internal/model"
	"attendance-tracker/internal/notify"
)

// ReminderService finds employees who forgot to check in or out today and
// notifies them over every configured channel.
type ReminderService struct {
	records   AttendanceRepository
	users     UserRepository
	notifiers []notify.Notifier
	cal       Calendar
}

func NewReminderService(records AttendanceRepository, users UserRepository, cal Calendar, notifiers ...notify.Notifier) *ReminderService {
	return &ReminderService{records: records, users: users, notifiers: notifiers, cal: cal}
}

// CheckoutSweep reminds users whose record today has a check-in but no
// check-out. It returns the number of users reminded.
func (s *ReminderService) CheckoutSweep(ctx context.Context) (int, error) {
	records, err := s.records.GetByDate(ctx, s.cal.Today())
	if err != nil {
		return 0, fmt.Errorf("get today records: %w", err)
	}

	var ids []bson.ObjectID
	for _, r := range records {
		if r.CheckIn != nil && r.CheckOut == nil {
			ids = append(ids, r.UserID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("get users: %w", err)
	}

	s.dispatch(ctx, users, "reminder.checkout")
	return len(users), nil
}

// CheckinSweep reminds every employee with no record today.
func (s *ReminderService) CheckinSweep(ctx context.Context) (int, error) {
	records, err := s.records.GetByDate(ctx, s.cal.Today())
	if err != nil {
		return 0, fmt.Errorf("get today records: %w", err)
	}
	present := make(map[bson.ObjectID]struct{}, len(records))
	for _, r := range records {
		present[r.UserID] = struct{}{}
	}

	employees, err := s.users.ListByRole(ctx, model.RoleEmployee)
	if err != nil {
		return 0, fmt.Errorf("list employees: %w", err)
	}
	var missing []*model.User
	for _, u := range employees {
		if _, ok := present[u.ID]; !ok {
			missing = append(missing, u)
		}
	}

	s.dispatch(ctx, missing, "reminder.checkin")
	return len(missing), nil
}

// dispatch fans msgID out to every user over every notifier. Failures are
// logged and never retried.
func (s *ReminderService) dispatch(ctx context.Context, users []*model.User, msgID string) {
	for _, u := range users {
		msg := notify.Message{
			Title: i18n.T(ctx, "reminder.title"),
			Body:  i18n.T(ctx, msgID, map[string]any{"Name": u.Name}),
			Tag:   msgID,
		}
		for _, n := range s.notifiers {
			if err := n.Notify(ctx, u, msg); err != nil {
				log.Printf("ERROR %s via %s to %s: %v", msgID, n.Name(), u.Email, err)
			}
		}
	}
}
