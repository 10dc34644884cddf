package models

import "time"

// ClassSchedule is a scheduled class session owned by a faculty user. Time is
// the composite "hh:mm AM/PM - hh:mm AM/PM" string the attendance classifier
// consumes; Date is the nominal ISO calendar date of the session.
type ClassSchedule struct {
	ID        string    `db:"id" json:"id"`
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	Subject   string    `db:"subject" json:"subject"`
	Section   string    `db:"section" json:"section"`
	Year      string    `db:"year" json:"year"`
	Term      string    `db:"term" json:"term"`
	Date      string    `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassScheduleDetail joins the owning faculty's display name.
type ClassScheduleDetail struct {
	ClassSchedule
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// ClassScheduleFilter scopes class listing queries.
type ClassScheduleFilter struct {
	FacultyID string
	Term      string
	Year      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
