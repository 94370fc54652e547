package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/driveguard/driveguard-api/internal/models"
	"github.com/driveguard/driveguard-api/internal/safety"
	"github.com/driveguard/driveguard-api/pkg/export"
	"github.com/driveguard/driveguard-api/pkg/storage"
)

type exportSnapshotSource interface {
	List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix   string
	ResultTTL   time.Duration
	PreviewRows int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders snapshot datasets into downloadable files. CSV and
// XLSX carry the full row set; PDF prints the safety summary plus a bounded
// preview.
type ExportService struct {
	source  exportSnapshotSource
	storage fileStorage
	signer  *storage.SignedURLSigner
	csv     datasetRenderer
	pdf     datasetRenderer
	xlsx    datasetRenderer
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(source exportSnapshotSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 20
	}
	return &ExportService{
		source:  source,
		storage: store,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		xlsx:    export.NewXLSXExporter(),
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	snapshots, err := s.source.List(ctx, models.SnapshotFilter{
		DeviceID: job.Params.DeviceID,
		From:     job.Params.From,
		To:       job.Params.To,
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshots for export: %w", err)
	}
	snapshots = safety.Sanitize(snapshots)
	dataset := s.buildDataset(job.Params.DeviceID, snapshots)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		if len(dataset.Rows) > s.cfg.PreviewRows {
			dataset.Rows = dataset.Rows[:s.cfg.PreviewRows]
		}
		payload, err = s.pdf.Render(dataset)
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(dataset)
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
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
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

// Cleanup removes files older than ttl (defaults to ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

var exportHeaders = []string{"timestamp", "ear", "mouth_distance", "yawn_events", "drowsiness_events", "critical_alerts", "status"}

func (s *ExportService) buildDataset(deviceID string, snapshots []models.Snapshot) export.Dataset {
	stats := safety.Stats(snapshots)

	rows := make([][]string, 0, len(snapshots))
	for _, snap := range snapshots {
		rows = append(rows, []string{
			snap.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(snap.EAR, 'f', -1, 64),
			strconv.FormatFloat(snap.MouthDistance, 'f', -1, 64),
			strconv.Itoa(snap.YawnEvents),
			strconv.Itoa(snap.DrowsinessEvents),
			strconv.Itoa(snap.CriticalAlerts),
			string(snap.Status),
		})
	}

	return export.Dataset{
		Title: fmt.Sprintf("Drowsiness Report %s", deviceID),
		Summary: []export.SummaryRow{
			{Label: "Safety Score", Value: fmt.Sprintf("%d (%s)", stats.Score, stats.Status)},
			{Label: "Average EAR", Value: strconv.FormatFloat(stats.AvgEAR, 'f', 3, 64)},
			{Label: "Total Yawns", Value: strconv.Itoa(stats.TotalYawns)},
			{Label: "Total Drowsiness", Value: strconv.Itoa(stats.TotalDrowsiness)},
			{Label: "Critical Alerts", Value: strconv.Itoa(stats.TotalCritical)},
			{Label: "Snapshots", Value: strconv.Itoa(len(snapshots))},
		},
		Headers:   exportHeaders,
		Rows:      rows,
		TotalRows: len(rows),
	}
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	device := sanitizeFilename(job.Params.DeviceID)
	return fmt.Sprintf("drowsiness_%s_%s.%s", device, timestamp, job.Params.Format)
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
