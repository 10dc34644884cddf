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

// ClassRepository manages persistence for class schedules. Attendance records
// are lifetime-bound to their class, so Delete removes both inside one
// transaction.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, faculty_id, subject, section, year, term, date, time, created_at, updated_at`

// List returns class schedules matching the filter.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassScheduleFilter) ([]models.ClassSchedule, int, error) {
	base := "FROM class_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.FacultyID != "" {
		conditions = append(conditions, "faculty_id = ?")
		args = append(args, filter.FacultyID)
	}
	if filter.Term != "" {
		conditions = append(conditions, "term = ?")
		args = append(args, filter.Term)
	}
	if filter.Year != "" {
		conditions = append(conditions, "year = ?")
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(LOWER(subject) LIKE ? OR LOWER(section) LIKE ?)")
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"subject":    true,
		"section":    true,
		"date":       true,
		"created_at": true,
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
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classColumns, base, sortBy, order, size, offset)
	var classes []models.ClassSchedule
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class schedules: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class schedules: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class schedule by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM class_schedules WHERE id = ?", classColumns)
	var class models.ClassSchedule
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class with the owning faculty's display name.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassScheduleDetail, error) {
	const query = `SELECT c.id, c.faculty_id, c.subject, c.section, c.year, c.term, c.date, c.time, c.created_at, c.updated_at,
CONCAT(u.first_name, ' ', u.last_name) AS faculty_name
FROM class_schedules c
LEFT JOIN users u ON u.id = c.faculty_id
WHERE c.id = ?`
	var detail models.ClassScheduleDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a class schedule.
func (r *ClassRepository) Create(ctx context.Context, class *models.ClassSchedule) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO class_schedules (id, faculty_id, subject, section, year, term, date, time, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		class.ID, class.FacultyID, class.Subject, class.Section, class.Year,
		class.Term, class.Date, class.Time, class.CreatedAt, class.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create class schedule: %w", err)
	}
	return nil
}

// Update persists editable class fields.
func (r *ClassRepository) Update(ctx context.Context, class *models.ClassSchedule) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_schedules SET subject = ?, section = ?, year = ?, term = ?, date = ?, time = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		class.Subject, class.Section, class.Year, class.Term,
		class.Date, class.Time, class.UpdatedAt, class.ID,
	)
	if err != nil {
		return fmt.Errorf("update class schedule: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update class schedule %s: no rows affected", class.ID)
	}
	return nil
}

// Delete removes a class schedule and all of its attendance records in one
// transaction.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete class: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance_records WHERE class_id = ?", id); err != nil {
		return fmt.Errorf("delete class attendance: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM class_schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete class schedule: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("delete class schedule %s: no rows affected", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete class: %w", err)
	}
	return nil
}
