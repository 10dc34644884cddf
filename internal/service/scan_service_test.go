package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JsterDevers/Presentryx/internal/models"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
)

type mockScanRepo struct {
	records  []models.AttendanceRecord
	open     []models.AttendanceRecord
	timeOuts map[string]string
	deleted  int64
}

func (m *mockScanRepo) Add(ctx context.Context, record *models.AttendanceRecord) error {
	record.ID = "rec-new"
	m.records = append(m.records, *record)
	return nil
}

func (m *mockScanRepo) ListByClassDate(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error) {
	return m.records, nil
}

func (m *mockScanRepo) OpenByClassDate(ctx context.Context, classID, date string) ([]models.AttendanceRecord, error) {
	return m.open, nil
}

func (m *mockScanRepo) SetTimeOut(ctx context.Context, id, timeOut string) error {
	if m.timeOuts == nil {
		m.timeOuts = make(map[string]string)
	}
	m.timeOuts[id] = timeOut
	return nil
}

func (m *mockScanRepo) ResetDay(ctx context.Context, classID, date string) (int64, error) {
	m.deleted = int64(len(m.records))
	m.records = nil
	m.open = nil
	return m.deleted, nil
}

type mockClassReader struct {
	class *models.ClassSchedule
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.ClassSchedule, error) {
	return m.class, nil
}

type stubRecognizer struct {
	newName    string
	activeName string
	activeOK   bool
}

func (s *stubRecognizer) IdentifyNew(existing []string) string { return s.newName }

func (s *stubRecognizer) IdentifyActive(active []string) (string, bool) {
	return s.activeName, s.activeOK
}

func newScanService(repo *mockScanRepo, rec *stubRecognizer, at time.Time) *ScanService {
	classes := &mockClassReader{class: &models.ClassSchedule{ID: "c1", Subject: "Physics", Time: "09:30 AM - 11:00 AM"}}
	svc := NewScanService(repo, classes, rec, nil, zap.NewNop())
	svc.now = func() time.Time { return at }
	return svc
}

func sessionDate() time.Time {
	return time.Date(2026, time.March, 2, 9, 33, 0, 0, time.UTC)
}

func TestScanInPresentWithinGrace(t *testing.T) {
	repo := &mockScanRepo{}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate().Add(2*time.Minute)) // 09:35

	res, err := svc.ScanIn(context.Background(), "c1", "Ana Reyes")
	require.NoError(t, err)
	assert.False(t, res.Overdue)
	assert.Equal(t, models.AttendanceStatusPresent, res.Record.Status)
	require.NotNil(t, res.Record.TimeIn)
	assert.Equal(t, "09:35 AM", *res.Record.TimeIn)
}

func TestScanInLateAfterGrace(t *testing.T) {
	repo := &mockScanRepo{}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate().Add(3*time.Minute)) // 09:36

	res, err := svc.ScanIn(context.Background(), "c1", "Ana Reyes")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, res.Record.Status)
}

func TestScanInOverdueRecordsAbsent(t *testing.T) {
	repo := &mockScanRepo{}
	at := time.Date(2026, time.March, 2, 11, 5, 0, 0, time.UTC)
	svc := newScanService(repo, &stubRecognizer{}, at)

	res, err := svc.ScanIn(context.Background(), "c1", "Ana Reyes")
	require.NoError(t, err)
	assert.True(t, res.Overdue)
	assert.Equal(t, models.AttendanceStatusAbsent, res.Record.Status)
	require.NotNil(t, res.Record.TimeIn)
	assert.Equal(t, "11:05 AM", *res.Record.TimeIn)
	require.Len(t, repo.records, 1)
}

func TestScanInDuplicateOpenRecord(t *testing.T) {
	in := "09:32 AM"
	repo := &mockScanRepo{open: []models.AttendanceRecord{
		{ID: "rec-1", ClassID: "c1", StudentName: "Ana Reyes", Date: "2026-03-02", Status: models.AttendanceStatusPresent, TimeIn: &in},
	}}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate())

	_, err := svc.ScanIn(context.Background(), "c1", "Ana Reyes")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyMarkedIn.Code, appErrors.FromError(err).Code)
}

func TestScanInRecognizerSuppliesName(t *testing.T) {
	repo := &mockScanRepo{}
	svc := newScanService(repo, &stubRecognizer{newName: "Student 1"}, sessionDate())

	res, err := svc.ScanIn(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, "Student 1", res.Record.StudentName)
}

func TestScanOutClosesLatestOpenRecord(t *testing.T) {
	early := "09:31 AM"
	late := "09:40 AM"
	repo := &mockScanRepo{open: []models.AttendanceRecord{
		{ID: "rec-1", StudentName: "Ana Reyes", TimeIn: &early},
		{ID: "rec-2", StudentName: "Ana Reyes", TimeIn: &late},
	}}
	at := time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC)
	svc := newScanService(repo, &stubRecognizer{}, at)

	record, err := svc.ScanOut(context.Background(), "c1", "Ana Reyes")
	require.NoError(t, err)
	assert.Equal(t, "rec-2", record.ID)
	require.NotNil(t, record.TimeOut)
	assert.Equal(t, "10:30 AM", *record.TimeOut)
	assert.Equal(t, "10:30 AM", repo.timeOuts["rec-2"])
}

func TestScanOutWithoutOpenRecord(t *testing.T) {
	repo := &mockScanRepo{}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate())

	_, err := svc.ScanOut(context.Background(), "c1", "Ana Reyes")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotMarkedIn.Code, appErrors.FromError(err).Code)
}

func TestAutoScanOutNoActiveStudents(t *testing.T) {
	repo := &mockScanRepo{}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate())

	_, err := svc.AutoScanOut(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoActiveStudents.Code, appErrors.FromError(err).Code)
}

func TestAutoScanOutPicksRecognizedStudent(t *testing.T) {
	in := "09:32 AM"
	repo := &mockScanRepo{open: []models.AttendanceRecord{
		{ID: "rec-1", StudentName: "Ana Reyes", TimeIn: &in},
		{ID: "rec-2", StudentName: "Ben Cruz", TimeIn: &in},
	}}
	at := time.Date(2026, time.March, 2, 10, 45, 0, 0, time.UTC)
	svc := newScanService(repo, &stubRecognizer{activeName: "Ben Cruz", activeOK: true}, at)

	record, err := svc.AutoScanOut(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "rec-2", record.ID)
}

func TestActiveStudentsDeduplicatesByLatestIn(t *testing.T) {
	early := "09:31 AM"
	late := "09:50 AM"
	repo := &mockScanRepo{open: []models.AttendanceRecord{
		{ID: "rec-1", StudentName: "Ana Reyes", TimeIn: &early},
		{ID: "rec-2", StudentName: "Ben Cruz", TimeIn: &early},
		{ID: "rec-3", StudentName: "Ana Reyes", TimeIn: &late},
	}}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate())

	active, err := svc.ActiveStudents(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "rec-3", active[0].ID)
	assert.Equal(t, "rec-2", active[1].ID)
}

func TestResetDayRequiresConfirmation(t *testing.T) {
	repo := &mockScanRepo{}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate())

	_, err := svc.ResetDay(context.Background(), "c1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResetDayDeletesRecords(t *testing.T) {
	in := "09:32 AM"
	repo := &mockScanRepo{records: []models.AttendanceRecord{
		{ID: "rec-1", StudentName: "Ana Reyes", TimeIn: &in},
		{ID: "rec-2", StudentName: "Ben Cruz", TimeIn: &in},
	}}
	svc := newScanService(repo, &stubRecognizer{}, sessionDate())

	deleted, err := svc.ResetDay(context.Background(), "c1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
