package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JsterDevers/Presentryx/internal/models"
	"github.com/JsterDevers/Presentryx/pkg/export"
	"github.com/JsterDevers/Presentryx/pkg/storage"
)

type exportAttendanceRepository interface {
	ListRange(ctx context.Context, classID string, from, to *string) ([]models.AttendanceRecord, error)
	DailyCounts(ctx context.Context, classID string, from, to *string) ([]models.DailyAttendanceCount, error)
}

type exportClassReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSchedule, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds attendance datasets and persists rendered files.
type ExportService struct {
	attendance exportAttendanceRepository
	classes    exportClassReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(attendance exportAttendanceRepository, classes exportClassReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		attendance: attendance,
		classes:    classes,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	classPart := sanitizeFilename(job.Params.ClassID)
	return fmt.Sprintf("attendance_%s_%s_%s.%s", strings.ToLower(string(job.Type)), classPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	class, err := s.classes.FindByID(ctx, job.Params.ClassID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load class for export: %w", err)
	}
	subject := fmt.Sprintf("%s %s", class.Subject, class.Section)

	switch job.Type {
	case models.ReportTypeRecords:
		return s.buildRecordsDataset(ctx, job.Params, subject)
	case models.ReportTypeSummary:
		return s.buildSummaryDataset(ctx, job.Params, subject)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildRecordsDataset(ctx context.Context, params models.ReportJobParams, subject string) (export.Dataset, string, error) {
	records, err := s.attendance.ListRange(ctx, params.ClassID, params.DateFrom, params.DateTo)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Student":  record.StudentName,
			"Date":     record.Date,
			"Status":   string(record.Status),
			"Time In":  derefTime(record.TimeIn),
			"Time Out": derefTime(record.TimeOut),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Date", "Status", "Time In", "Time Out"},
		Rows:    rows,
	}
	return dataset, fmt.Sprintf("Attendance Records %s", subject), nil
}

func (s *ExportService) buildSummaryDataset(ctx context.Context, params models.ReportJobParams, subject string) (export.Dataset, string, error) {
	counts, err := s.attendance.DailyCounts(ctx, params.ClassID, params.DateFrom, params.DateTo)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(counts))
	for _, day := range counts {
		rows = append(rows, map[string]string{
			"Date":    day.Date,
			"Present": fmt.Sprintf("%d", day.Present),
			"Late":    fmt.Sprintf("%d", day.Late),
			"Absent":  fmt.Sprintf("%d", day.Absent),
			"Total":   fmt.Sprintf("%d", day.Total),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Date", "Present", "Late", "Absent", "Total"},
		Rows:    rows,
	}
	return dataset, fmt.Sprintf("Attendance Summary %s", subject), nil
}

func derefTime(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
