package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JsterDevers/Presentryx/internal/models"
	"github.com/JsterDevers/Presentryx/internal/repository"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
	"github.com/JsterDevers/Presentryx/pkg/jobs"
)

type mockReportStore struct {
	jobs    map[string]*models.ReportJob
	updates []repository.UpdateReportJobParams
}

func (m *mockReportStore) Create(ctx context.Context, job *models.ReportJob) error {
	job.ID = "job-1"
	if m.jobs == nil {
		m.jobs = make(map[string]*models.ReportJob)
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockReportStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (m *mockReportStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	m.updates = append(m.updates, params)
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	return nil
}

func (m *mockReportStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	out := make([]models.ReportJob, 0)
	for _, job := range m.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockReportStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type stubDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (s *stubDispatcher) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, job)
	return nil
}

type stubExporter struct {
	result *ExportResult
	err    error
}

func (s *stubExporter) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	return s.result, s.err
}

func reportClass() *mockClassReader {
	return &mockClassReader{class: &models.ClassSchedule{ID: "c1", FacultyID: "f1", Subject: "Physics", Section: "1-A", Time: "09:30 AM - 11:00 AM"}}
}

func TestReportServiceCreateJob(t *testing.T) {
	store := &mockReportStore{}
	queue := &stubDispatcher{}
	svc := NewReportService(store, reportClass(), queue, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), ReportRequest{
		Type: models.ReportTypeRecords, ClassID: "c1", Format: models.ReportFormatCSV,
	}, "f1", models.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}

func TestReportServiceCreateJobForbiddenForOtherFaculty(t *testing.T) {
	svc := NewReportService(&mockReportStore{}, reportClass(), &stubDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ReportRequest{
		Type: models.ReportTypeRecords, ClassID: "c1", Format: models.ReportFormatCSV,
	}, "f2", models.RoleFaculty)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobRejectsBadFormat(t *testing.T) {
	svc := NewReportService(&mockReportStore{}, reportClass(), &stubDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ReportRequest{
		Type: models.ReportTypeRecords, ClassID: "c1", Format: "xlsx",
	}, "admin", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobMarksFailedWhenEnqueueFails(t *testing.T) {
	store := &mockReportStore{}
	queue := &stubDispatcher{err: errors.New("queue full")}
	svc := NewReportService(store, reportClass(), queue, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ReportRequest{
		Type: models.ReportTypeSummary, ClassID: "c1", Format: models.ReportFormatPDF,
	}, "admin", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusFailed, store.jobs["job-1"].Status)
}

func TestReportServiceGetStatusEnforcesOwnership(t *testing.T) {
	store := &mockReportStore{jobs: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Status: models.ReportStatusProcessing, Progress: 10, CreatedBy: "f1"},
	}}
	svc := NewReportService(store, reportClass(), &stubDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	status, err := svc.GetStatus(context.Background(), "job-1", "f1", models.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusProcessing, status.Status)

	_, err = svc.GetStatus(context.Background(), "job-1", "f2", models.RoleFaculty)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetStatus(context.Background(), "job-1", "someone", models.RoleAdmin)
	require.NoError(t, err)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := &mockReportStore{jobs: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Type: models.ReportTypeRecords, Status: models.ReportStatusQueued},
		"job-2": {ID: "job-2", Type: models.ReportTypeSummary, Status: models.ReportStatusFinished},
	}}
	queue := &stubDispatcher{}
	svc := NewReportService(store, reportClass(), queue, nil, zap.NewNop(), ReportServiceConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}

func TestReportWorkerFinishesJob(t *testing.T) {
	store := &mockReportStore{jobs: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Type: models.ReportTypeRecords, Status: models.ReportStatusQueued,
			Params: models.ReportJobParams{ClassID: "c1", Format: models.ReportFormatCSV}},
	}}
	exporter := &stubExporter{result: &ExportResult{URL: "/api/v1/export/tok", RelativePath: "file.csv"}}
	worker := NewReportWorker(store, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.NoError(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/export/tok", *job.ResultURL)
}

func TestReportWorkerRequeuesOnRetryableFailure(t *testing.T) {
	store := &mockReportStore{jobs: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Type: models.ReportTypeRecords, Status: models.ReportStatusQueued},
	}}
	worker := NewReportWorker(store, &stubExporter{err: errors.New("render failed")}, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, store.jobs["job-1"].Status)
}

func TestReportWorkerFailsAfterMaxRetries(t *testing.T) {
	store := &mockReportStore{jobs: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Type: models.ReportTypeRecords, Status: models.ReportStatusQueued},
	}}
	worker := NewReportWorker(store, &stubExporter{err: errors.New("render failed")}, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "render failed", *job.ErrorMessage)
}
