package models

import "time"

// AttendanceStatus represents the classification of an attendance record.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusLate    AttendanceStatus = "Late"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one IN/OUT attendance entry for a student in a class
// session. A record with a nil TimeOut is "open": the student is still marked
// IN. Date is the calendar date of the scan, independent of the class's
// nominal date. Times are 12-hour "hh:mm AM/PM" strings.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	ClassID     string           `db:"class_id" json:"class_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	Date        string           `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	TimeIn      *string          `db:"time_in" json:"time_in"`
	TimeOut     *string          `db:"time_out" json:"time_out"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Open reports whether the record still lacks an OUT time.
func (r *AttendanceRecord) Open() bool {
	return r.TimeOut == nil
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	ClassID     string
	Date        string
	Status      *AttendanceStatus
	StudentName string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// DailyAttendanceCount is one row of the per-day export aggregation.
type DailyAttendanceCount struct {
	Date    string `db:"date" json:"date"`
	Present int    `db:"present" json:"present"`
	Late    int    `db:"late" json:"late"`
	Absent  int    `db:"absent" json:"absent"`
	Total   int    `db:"total" json:"total"`
}

// AttendanceSummary aggregates a class day's records for the dashboard.
type AttendanceSummary struct {
	ClassID        string `db:"-" json:"class_id"`
	Date           string `db:"-" json:"date"`
	Present        int    `db:"present" json:"present"`
	Late           int    `db:"late" json:"late"`
	Absent         int    `db:"absent" json:"absent"`
	Total          int    `db:"total" json:"total"`
	UniqueStudents int    `db:"unique_students" json:"unique_students"`
	ActiveStudents int    `db:"active_students" json:"active_students"`
}
