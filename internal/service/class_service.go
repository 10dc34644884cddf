package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JsterDevers/Presentryx/internal/models"
	"github.com/JsterDevers/Presentryx/internal/schedule"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassScheduleFilter) ([]models.ClassSchedule, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassSchedule, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassScheduleDetail, error)
	Create(ctx context.Context, class *models.ClassSchedule) error
	Update(ctx context.Context, class *models.ClassSchedule) error
	Delete(ctx context.Context, id string) error
}

// ClassService manages faculty class schedules. Every stored schedule string
// is validated up front so the scan classifier never sees a malformed range.
type ClassService struct {
	repo      classRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService instance.
func NewClassService(repo classRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// CreateClassRequest is the payload for scheduling a class.
type CreateClassRequest struct {
	FacultyID string `json:"faculty_id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Section   string `json:"section" validate:"required"`
	Year      string `json:"year" validate:"required"`
	Term      string `json:"term" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
}

// UpdateClassRequest carries the mutable schedule fields.
type UpdateClassRequest struct {
	Subject *string `json:"subject"`
	Section *string `json:"section"`
	Year    *string `json:"year"`
	Term    *string `json:"term"`
	Date    *string `json:"date"`
	Time    *string `json:"time"`
}

// Create stores a new class schedule after validating the time range.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.ClassSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := schedule.Validate(req.Time); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule time")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	class := &models.ClassSchedule{
		FacultyID: req.FacultyID,
		Subject:   req.Subject,
		Section:   req.Section,
		Year:      req.Year,
		Term:      req.Term,
		Date:      req.Date,
		Time:      req.Time,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.logger.Info("class scheduled",
		zap.String("class_id", class.ID),
		zap.String("subject", class.Subject),
		zap.String("time", class.Time),
	)
	return class, nil
}

// Update applies a partial update to a class. Changing the time range
// invalidates the cached dashboard for the class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.ClassSchedule, error) {
	class, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Subject != nil {
		class.Subject = *req.Subject
	}
	if req.Section != nil {
		class.Section = *req.Section
	}
	if req.Year != nil {
		class.Year = *req.Year
	}
	if req.Term != nil {
		class.Term = *req.Term
	}
	if req.Date != nil {
		if _, err := time.Parse("2006-01-02", *req.Date); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		class.Date = *req.Date
	}
	if req.Time != nil {
		if err := schedule.Validate(*req.Time); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule time")
		}
		class.Time = *req.Time
	}
	class.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidate(ctx, class.ID)
	return class, nil
}

// Delete removes a class and all of its attendance records.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidate(ctx, id)
	s.logger.Info("class deleted with its attendance records", zap.String("class_id", id))
	return nil
}

// Get returns a class with the owning faculty's name.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassScheduleDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return detail, nil
}

// List returns classes matching the filter with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassScheduleFilter) ([]models.ClassSchedule, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Bounds converts the class's schedule string to 24-hour bounds for display.
func (s *ClassService) Bounds(ctx context.Context, id string) (*schedule.Bounds, error) {
	class, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	bounds := schedule.ParseTo24Hr(class.Time)
	if bounds.Start24 == "" || bounds.End24 == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class has an invalid schedule")
	}
	return &bounds, nil
}

func (s *ClassService) get(ctx context.Context, id string) (*models.ClassSchedule, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *ClassService) invalidate(ctx context.Context, classID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(classID, "*")); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("class_id", classID), zap.Error(err))
	}
}
