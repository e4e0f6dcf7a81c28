package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/model"
	"attendance-tracker/internal/notify"
	"attendance-tracker/internal/store"
)

// memUsers is an in-memory UserRepository with a unique email constraint.
type memUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: email", store.ErrDuplicate)
		}
	}
	user.ID = bson.NewObjectID()
	user.CreatedAt = time.Now()
	cp := *user
	m.users = append(m.users, &cp)
	return nil
}

func (m *memUsers) add(name, email string, role model.Role, dept string) *model.User {
	u := &model.User{Name: name, Email: email, Role: role, Department: dept}
	if err := m.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (m *memUsers) GetByID(_ context.Context, id bson.ObjectID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByIDs(_ context.Context, ids []bson.ObjectID) ([]*model.User, error) {
	return m.filter(func(u *model.User) bool {
		for _, id := range ids {
			if u.ID == id {
				return true
			}
		}
		return false
	}), nil
}

func (m *memUsers) ListByDepartment(_ context.Context, dept string) ([]*model.User, error) {
	return m.filter(func(u *model.User) bool { return u.Department == dept }), nil
}

func (m *memUsers) ListByRole(_ context.Context, role model.Role) ([]*model.User, error) {
	return m.filter(func(u *model.User) bool { return u.Role == role }), nil
}

func (m *memUsers) List(_ context.Context) ([]*model.User, error) {
	return m.filter(func(*model.User) bool { return true }), nil
}

func (m *memUsers) filter(keep func(*model.User) bool) []*model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out
}

// memAttendance is an in-memory AttendanceRepository enforcing the unique
// (user_id, date) index.
type memAttendance struct {
	mu      sync.Mutex
	records []*model.AttendanceRecord

	// lostCheckOut makes CompleteCheckOut behave as if another request won.
	lostCheckOut bool
}

func (m *memAttendance) GetByUserAndDate(_ context.Context, userID bson.ObjectID, date time.Time) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := date.AddDate(0, 0, 1)
	for _, r := range m.records {
		if r.UserID == userID && !r.Date.Before(date) && r.Date.Before(end) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAttendance) GetByID(_ context.Context, id bson.ObjectID) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAttendance) CreateRecord(_ context.Context, record *model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.UserID == record.UserID && r.Date.Equal(record.Date) {
			return fmt.Errorf("%w: user_id_1_date_1", store.ErrDuplicate)
		}
	}
	record.ID = bson.NewObjectID()
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *memAttendance) CompleteCheckOut(_ context.Context, record *model.AttendanceRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lostCheckOut {
		return false, nil
	}
	for _, r := range m.records {
		if r.ID == record.ID && r.CheckOut == nil {
			r.CheckOut = record.CheckOut
			r.WorkHours = record.WorkHours
			return true, nil
		}
	}
	return false, nil
}

func (m *memAttendance) UpdateRecord(_ context.Context, record *model.AttendanceRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == record.ID {
			cp := *record
			m.records[i] = &cp
			return true, nil
		}
	}
	return false, nil
}

func (m *memAttendance) DeleteRecord(_ context.Context, id bson.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memAttendance) GetByUser(ctx context.Context, userID bson.ObjectID) ([]*model.AttendanceRecord, error) {
	return m.Find(ctx, store.AttendanceFilter{UserID: &userID})
}

func (m *memAttendance) GetByDate(ctx context.Context, date time.Time) ([]*model.AttendanceRecord, error) {
	end := date.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return m.Find(ctx, store.AttendanceFilter{From: &date, To: &end})
}

func (m *memAttendance) Find(_ context.Context, f store.AttendanceFilter) ([]*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AttendanceRecord
	for _, r := range m.records {
		if f.From != nil && r.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && r.Date.After(*f.To) {
			continue
		}
		if f.UserID != nil && r.UserID != *f.UserID {
			continue
		}
		if f.UserID == nil && f.UserIDs != nil && !containsID(f.UserIDs, r.UserID) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memAttendance) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memAttendance) seed(userID bson.ObjectID, date time.Time, in, out *time.Time) *model.AttendanceRecord {
	r := &model.AttendanceRecord{UserID: userID, Date: date, CheckIn: in, CheckOut: out, Status: model.AttendanceStatusPresent}
	r.RecomputeWorkHours()
	if err := m.CreateRecord(context.Background(), r); err != nil {
		panic(err)
	}
	return r
}

func containsID(ids []bson.ObjectID, id bson.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingNotifier captures deliveries and optionally fails for some emails.
type recordingNotifier struct {
	mu     sync.Mutex
	name   string
	failOn map[string]bool
	sent   []string
}

func (n *recordingNotifier) Name() string { return n.name }

func (n *recordingNotifier) Notify(_ context.Context, user *model.User, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn[user.Email] {
		return fmt.Errorf("delivery to %s failed", user.Email)
	}
	n.sent = append(n.sent, user.Email+"|"+msg.Body)
	return nil
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		email, _, _ := strings.Cut(s, "|")
		out = append(out, email)
	}
	return out
}

func storeFilterAll() store.AttendanceFilter {
	return store.AttendanceFilter{}
}
