package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JsterDevers/Presentryx/internal/models"
)

// AttendanceRepository handles persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, class_id, student_name, date, status, time_in, time_out, created_at, updated_at`

// Add appends a new attendance record. Idempotence is not enforced here; the
// scan service guards against duplicate open records before calling Add.
func (r *AttendanceRepository) Add(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance_records (id, class_id, student_name, date, status, time_in, time_out, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		record.ID, record.ClassID, record.StudentName, record.Date,
		record.Status, record.TimeIn, record.TimeOut, record.CreatedAt, record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("add attendance record: %w", err)
	}
	return nil
}

// List returns attendance records matching the filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := "FROM attendance_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, "class_id = ?")
		args = append(args, filter.ClassID)
	}
	if filter.Date != "" {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date)
	}
	if filter.Status != nil && filter.Status.Valid() {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.StudentName != "" {
		conditions = append(conditions, "LOWER(student_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.StudentName)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"student_name": true,
		"status":       true,
		"date":         true,
		"created_at":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", attendanceColumns, base, sortBy, order, size, offset)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}
	return records, total, nil
}

// ListByClassDate returns every record for a class on a calendar date.
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE class_id = ? AND date = ? ORDER BY created_at ASC", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, classID, date); err != nil {
		return nil, fmt.Errorf("list class day attendance: %w", err)
	}
	return records, nil
}

// OpenByClassDate returns the records still lacking an OUT time for a class
// on a calendar date.
func (r *AttendanceRepository) OpenByClassDate(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE class_id = ? AND date = ? AND time_out IS NULL ORDER BY created_at ASC", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, classID, date); err != nil {
		return nil, fmt.Errorf("list open attendance: %w", err)
	}
	return records, nil
}

// SetTimeOut closes an open record. Status is left untouched.
func (r *AttendanceRepository) SetTimeOut(ctx context.Context, id, timeOut string) error {
	const query = `UPDATE attendance_records SET time_out = ?, updated_at = ? WHERE id = ? AND time_out IS NULL`
	result, err := r.db.ExecContext(ctx, query, timeOut, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set time out: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("set time out %s: no open record", id)
	}
	return nil
}

// ResetDay deletes every record for a class on a calendar date and returns
// how many were removed.
func (r *AttendanceRepository) ResetDay(ctx context.Context, classID, date string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM attendance_records WHERE class_id = ? AND date = ?", classID, date)
	if err != nil {
		return 0, fmt.Errorf("reset day attendance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset day attendance rows: %w", err)
	}
	return rows, nil
}

// DeleteByClass removes every record owned by a class.
func (r *AttendanceRepository) DeleteByClass(ctx context.Context, classID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM attendance_records WHERE class_id = ?", classID); err != nil {
		return fmt.Errorf("delete class attendance: %w", err)
	}
	return nil
}

// ListRange returns a class's records across an optional date window in
// chronological order, for exports.
func (r *AttendanceRepository) ListRange(ctx context.Context, classID string, from, to *string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE class_id = ?", attendanceColumns)
	args := []interface{}{classID}
	if from != nil && *from != "" {
		query += " AND date >= ?"
		args = append(args, *from)
	}
	if to != nil && *to != "" {
		query += " AND date <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY date ASC, created_at ASC"
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return records, nil
}

// DailyCounts aggregates per-day status counts for a class across an optional
// date window, for summary exports.
func (r *AttendanceRepository) DailyCounts(ctx context.Context, classID string, from, to *string) ([]models.DailyAttendanceCount, error) {
	query := `SELECT date,
COUNT(CASE WHEN status = 'Present' THEN 1 END) AS present,
COUNT(CASE WHEN status = 'Late' THEN 1 END) AS late,
COUNT(CASE WHEN status = 'Absent' THEN 1 END) AS absent,
COUNT(*) AS total
FROM attendance_records WHERE class_id = ?`
	args := []interface{}{classID}
	if from != nil && *from != "" {
		query += " AND date >= ?"
		args = append(args, *from)
	}
	if to != nil && *to != "" {
		query += " AND date <= ?"
		args = append(args, *to)
	}
	query += " GROUP BY date ORDER BY date ASC"
	var counts []models.DailyAttendanceCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate daily attendance: %w", err)
	}
	return counts, nil
}

// Summary aggregates status counts and distinct students for a class day.
func (r *AttendanceRepository) Summary(ctx context.Context, classID, date string) (*models.AttendanceSummary, error) {
	const query = `SELECT
COUNT(CASE WHEN status = 'Present' THEN 1 END) AS present,
COUNT(CASE WHEN status = 'Late' THEN 1 END) AS late,
COUNT(CASE WHEN status = 'Absent' THEN 1 END) AS absent,
COUNT(*) AS total,
COUNT(DISTINCT student_name) AS unique_students,
COUNT(DISTINCT CASE WHEN time_out IS NULL THEN student_name END) AS active_students
FROM attendance_records WHERE class_id = ? AND date = ?`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, classID, date); err != nil {
		return nil, fmt.Errorf("summarise attendance: %w", err)
	}
	summary.ClassID = classID
	summary.Date = date
	return &summary, nil
}
