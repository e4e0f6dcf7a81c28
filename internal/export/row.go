// Package export renders filtered attendance listings as downloadable files.
package export

import (
	"strconv"
	"time"

	"attendance-tracker/internal/model"
)

const notAvailable = "N/A"

// Header is the column order shared by every format.
var Header = []string{"Name", "Email", "Department", "Date", "CheckIn", "CheckOut", "WorkHours"}

type Row struct {
	Name       string
	Email      string
	Department string
	Date       string
	CheckIn    string
	CheckOut   string
	WorkHours  string
}

func (r Row) Values() []string {
	return []string{r.Name, r.Email, r.Department, r.Date, r.CheckIn, r.CheckOut, r.WorkHours}
}

// NewRows formats views for export, rendering dates and times in loc.
func NewRows(views []*model.AttendanceView, loc *time.Location) []Row {
	rows := make([]Row, 0, len(views))
	for _, v := range views {
		row := Row{
			Name:       notAvailable,
			Email:      notAvailable,
			Department: notAvailable,
			Date:       v.Date.In(loc).Format(time.DateOnly),
			CheckIn:    formatClock(v.CheckIn, loc),
			CheckOut:   formatClock(v.CheckOut, loc),
			WorkHours:  notAvailable,
		}
		if v.User != nil {
			row.Name = v.User.Name
			row.Email = v.User.Email
			if v.User.Department != "" {
				row.Department = v.User.Department
			}
		}
		if v.CheckOut != nil {
			row.WorkHours = strconv.FormatFloat(v.WorkHours, 'f', 2, 64)
		}
		rows = append(rows, row)
	}
	return rows
}

func formatClock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return notAvailable
	}
	return t.In(loc).Format(time.TimeOnly)
}
