package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JsterDevers/Presentryx/internal/models"
	"github.com/JsterDevers/Presentryx/internal/recognizer"
	"github.com/JsterDevers/Presentryx/internal/schedule"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
)

type scanAttendanceRepository interface {
	Add(ctx context.Context, record *models.AttendanceRecord) error
	ListByClassDate(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error)
	OpenByClassDate(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error)
	SetTimeOut(ctx context.Context, id, timeOut string) error
	ResetDay(ctx context.Context, classID, date string) (int64, error)
}

type scanClassReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSchedule, error)
}

// ScanService coordinates the IN/OUT attendance state machine. Each scan is
// classified against the class's schedule string: scans past the class end
// produce an Absent record for the attempt, scans within the grace period are
// Present, later IN scans are Late. A per-(class, date) mutex serialises
// concurrent scans so two requests cannot open duplicate IN records.
type ScanService struct {
	records    scanAttendanceRepository
	classes    scanClassReader
	recognizer recognizer.Recognizer
	cache      *CacheService
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewScanService constructs the scan service.
func NewScanService(records scanAttendanceRepository, classes scanClassReader, rec recognizer.Recognizer, cache *CacheService, logger *zap.Logger) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{
		records:    records,
		classes:    classes,
		recognizer: rec,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// ScanInResult carries the created record and how the scan was classified.
type ScanInResult struct {
	Record  *models.AttendanceRecord `json:"record"`
	Overdue bool                     `json:"overdue"`
}

// ScanIn processes an IN scan for a class. When studentName is empty the
// recognizer supplies the identity. A scan after the class end time is not
// rejected: it is recorded as an Absent attempt with the scan time preserved.
func (s *ScanService) ScanIn(ctx context.Context, classID, studentName string) (*ScanInResult, error) {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := schedule.Validate(class.Time); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "class has an invalid schedule")
	}

	now := s.now()
	scanTime := schedule.Clock(now)
	today := schedule.Day(now)

	lock := s.sessionLock(classID, today)
	lock.Lock()
	defer lock.Unlock()

	if studentName == "" {
		existing, err := s.records.ListByClassDate(ctx, classID, today)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session records")
		}
		studentName = s.recognizer.IdentifyNew(studentNames(existing))
	}

	if schedule.IsOverdue(class.Time, scanTime) {
		record := &models.AttendanceRecord{
			ClassID:     classID,
			StudentName: studentName,
			Date:        today,
			Status:      models.AttendanceStatusAbsent,
			TimeIn:      &scanTime,
		}
		if err := s.records.Add(ctx, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record absent attempt")
		}
		s.invalidateDay(ctx, classID, today)
		s.logger.Info("overdue scan recorded as absent",
			zap.String("class_id", classID),
			zap.String("student", studentName),
			zap.String("scan_time", scanTime),
		)
		return &ScanInResult{Record: record, Overdue: true}, nil
	}

	open, err := s.records.OpenByClassDate(ctx, classID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open records")
	}
	for i := range open {
		if open[i].StudentName == studentName {
			return nil, appErrors.Clone(appErrors.ErrAlreadyMarkedIn, studentName+" already has an open attendance record")
		}
	}

	status := models.AttendanceStatusPresent
	if schedule.IsLate(scanTime, class.Time) {
		status = models.AttendanceStatusLate
	}

	record := &models.AttendanceRecord{
		ClassID:     classID,
		StudentName: studentName,
		Date:        today,
		Status:      status,
		TimeIn:      &scanTime,
	}
	if err := s.records.Add(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record scan")
	}
	s.invalidateDay(ctx, classID, today)

	return &ScanInResult{Record: record}, nil
}

// ScanOut closes the student's most recent open record for today. When the
// student has no open record the operation fails without creating anything.
func (s *ScanService) ScanOut(ctx context.Context, classID, studentName string) (*models.AttendanceRecord, error) {
	if studentName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student name is required for an OUT scan")
	}
	if _, err := s.loadClass(ctx, classID); err != nil {
		return nil, err
	}

	now := s.now()
	today := schedule.Day(now)

	lock := s.sessionLock(classID, today)
	lock.Lock()
	defer lock.Unlock()

	return s.closeOpenRecord(ctx, classID, today, studentName, schedule.Clock(now))
}

// AutoScanOut closes one active student chosen by the recognizer. It refuses
// to run when nobody is currently marked IN.
func (s *ScanService) AutoScanOut(ctx context.Context, classID string) (*models.AttendanceRecord, error) {
	if _, err := s.loadClass(ctx, classID); err != nil {
		return nil, err
	}

	now := s.now()
	today := schedule.Day(now)

	lock := s.sessionLock(classID, today)
	lock.Lock()
	defer lock.Unlock()

	active, err := s.activeRecords(ctx, classID, today)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, appErrors.ErrNoActiveStudents
	}

	name, ok := s.recognizer.IdentifyActive(studentNames(active))
	if !ok {
		return nil, appErrors.ErrNoActiveStudents
	}

	return s.closeOpenRecord(ctx, classID, today, name, schedule.Clock(now))
}

// ActiveStudents returns the open records for today's session, deduplicated
// per student keeping the latest IN time.
func (s *ScanService) ActiveStudents(ctx context.Context, classID string) ([]models.AttendanceRecord, error) {
	if _, err := s.loadClass(ctx, classID); err != nil {
		return nil, err
	}
	return s.activeRecords(ctx, classID, schedule.Day(s.now()))
}

// ResetDay deletes today's records for the class. The handler requires an
// explicit confirmation flag because the operation is irreversible.
func (s *ScanService) ResetDay(ctx context.Context, classID string, confirm bool) (int64, error) {
	if !confirm {
		return 0, appErrors.Clone(appErrors.ErrValidation, "reset requires explicit confirmation")
	}
	if _, err := s.loadClass(ctx, classID); err != nil {
		return 0, err
	}

	today := schedule.Day(s.now())

	lock := s.sessionLock(classID, today)
	lock.Lock()
	defer lock.Unlock()

	deleted, err := s.records.ResetDay(ctx, classID, today)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset attendance")
	}
	s.invalidateDay(ctx, classID, today)
	s.logger.Info("daily attendance reset", zap.String("class_id", classID), zap.Int64("deleted", deleted))
	return deleted, nil
}

func (s *ScanService) closeOpenRecord(ctx context.Context, classID, date, studentName, timeOut string) (*models.AttendanceRecord, error) {
	open, err := s.records.OpenByClassDate(ctx, classID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open records")
	}

	var target *models.AttendanceRecord
	for i := range open {
		if open[i].StudentName != studentName {
			continue
		}
		if target == nil || timeInMinutes(&open[i]) > timeInMinutes(target) {
			target = &open[i]
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotMarkedIn, studentName+" is not currently marked IN")
	}

	if err := s.records.SetTimeOut(ctx, target.ID, timeOut); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record OUT scan")
	}
	target.TimeOut = &timeOut
	s.invalidateDay(ctx, classID, date)

	return target, nil
}

func (s *ScanService) activeRecords(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error) {
	open, err := s.records.OpenByClassDate(ctx, classID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open records")
	}

	latest := make(map[string]models.AttendanceRecord, len(open))
	order := make([]string, 0, len(open))
	for _, record := range open {
		existing, seen := latest[record.StudentName]
		if !seen {
			order = append(order, record.StudentName)
			latest[record.StudentName] = record
			continue
		}
		if timeInMinutes(&record) > timeInMinutes(&existing) {
			latest[record.StudentName] = record
		}
	}

	active := make([]models.AttendanceRecord, 0, len(order))
	for _, name := range order {
		active = append(active, latest[name])
	}
	return active, nil
}

func (s *ScanService) loadClass(ctx context.Context, classID string) (*models.ClassSchedule, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *ScanService) sessionLock(classID, date string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := classID + "|" + date
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *ScanService) invalidateDay(ctx context.Context, classID, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(classID, date)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("class_id", classID), zap.Error(err))
	}
}

func timeInMinutes(record *models.AttendanceRecord) int {
	if record.TimeIn == nil {
		return schedule.InvalidMinute
	}
	return schedule.TimeToMinutes(*record.TimeIn)
}

func studentNames(records []models.AttendanceRecord) []string {
	names := make([]string, len(records))
	for i, record := range records {
		names[i] = record.StudentName
	}
	return names
}
