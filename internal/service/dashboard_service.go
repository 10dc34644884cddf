package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JsterDevers/Presentryx/internal/models"
	"github.com/JsterDevers/Presentryx/internal/schedule"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
)

type dashboardAttendanceRepository interface {
	Summary(ctx context.Context, classID, date string) (*models.AttendanceSummary, error)
	OpenByClassDate(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error)
}

// dashboardCacheKey namespaces cached summaries per class and date. Scan
// writes invalidate the exact day; class mutations invalidate with a "*"
// date wildcard.
func dashboardCacheKey(classID, date string) string {
	return fmt.Sprintf("dashboard:summary:%s:%s", classID, date)
}

// DashboardService aggregates a class day's attendance counts for the faculty
// dashboard. Summaries are cached briefly since the dashboard polls.
type DashboardService struct {
	repo   dashboardAttendanceRepository
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(repo dashboardAttendanceRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, ttl: ttl, now: time.Now}
}

// Summary returns the aggregated counts for a class on a date. An empty date
// defaults to today. The boolean reports whether the summary was served from
// cache.
func (s *DashboardService) Summary(ctx context.Context, classID, date string) (*models.AttendanceSummary, bool, error) {
	if classID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if date == "" {
		date = schedule.Day(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	key := dashboardCacheKey(classID, date)
	var cached models.AttendanceSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.repo.Summary(ctx, classID, date)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	summary.ClassID = classID
	summary.Date = date

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, false, nil
}
