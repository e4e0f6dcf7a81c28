package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusLate    AttendanceStatus = "Late"
)

type AttendanceRecord struct {
	ID        bson.ObjectID    `bson:"_id,omitempty" json:"_id"`
	UserID    bson.ObjectID    `bson:"user_id" json:"userId"`
	Date      time.Time        `bson:"date" json:"date"` // midnight, server location
	CheckIn   *time.Time       `bson:"check_in,omitempty" json:"checkIn"`
	CheckOut  *time.Time       `bson:"check_out,omitempty" json:"checkOut"`
	WorkHours float64          `bson:"work_hours" json:"workHours"`
	Status    AttendanceStatus `bson:"status" json:"status"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `bson:"updated_at" json:"updatedAt"`
}

// RecomputeWorkHours sets WorkHours from the check-in/check-out pair. It leaves
// the previous value untouched unless both timestamps are present.
func (r *AttendanceRecord) RecomputeWorkHours() {
	if r.CheckIn == nil || r.CheckOut == nil {
		return
	}
	r.WorkHours = r.CheckOut.Sub(*r.CheckIn).Hours()
}

// AttendanceView is a record with its owner joined in, the shape returned by
// admin listings.
type AttendanceView struct {
	ID        bson.ObjectID    `json:"_id"`
	User      *UserSummary     `json:"userId"`
	Date      time.Time        `json:"date"`
	CheckIn   *time.Time       `json:"checkIn"`
	CheckOut  *time.Time       `json:"checkOut"`
	WorkHours float64          `json:"workHours"`
	Status    AttendanceStatus `json:"status"`
}

func NewAttendanceView(r *AttendanceRecord, u *User) *AttendanceView {
	v := &AttendanceView{
		ID:        r.ID,
		Date:      r.Date,
		CheckIn:   r.CheckIn,
		CheckOut:  r.CheckOut,
		WorkHours: r.WorkHours,
		Status:    r.Status,
	}
	if u != nil {
		v.User = u.Summary()
	}
	return v
}
