package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
	"github.com/glowtrack/glowtrack-api/pkg/export"
)

// ReportFormat selects the rendered export format.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// ReportFile is a rendered export ready for download.
type ReportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ReportService renders the user's photo history and progress into
// downloadable documents.
type ReportService struct {
	photos       *PhotoService
	achievements *AchievementService
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	logger       *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(photos *PhotoService, achievements *AchievementService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		photos:       photos,
		achievements: achievements,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		logger:       logger,
	}
}

// PhotoHistory renders the user's photo log for the given window.
func (s *ReportService) PhotoHistory(_ context.Context, userID string, start, end time.Time, format ReportFormat) (*ReportFile, error) {
	photos := s.photos.ByDateRange(userID, start, end)

	dataset := export.Dataset{
		Headers: []string{"Date", "Photo ID", "Light", "Face Detected", "Size (KB)", "Analyzed"},
	}
	for _, photo := range photos {
		analyzed := "no"
		if photo.AnalysisID != nil {
			analyzed = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":          photo.TakenAt.Format("2006-01-02 15:04"),
			"Photo ID":      photo.ID,
			"Light":         string(photo.LightQuality),
			"Face Detected": fmt.Sprintf("%t", photo.FaceDetected),
			"Size (KB)":     fmt.Sprintf("%.1f", float64(photo.Metadata.FileSizeBytes)/1024),
			"Analyzed":      analyzed,
		})
	}

	return s.render(dataset, "Photo History", "photo-history", format)
}

// ProgressSummary renders storage totals and achievement state.
func (s *ReportService) ProgressSummary(_ context.Context, userID string, format ReportFormat) (*ReportFile, error) {
	stats := s.photos.Stats()

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Photos stored", "Value": fmt.Sprintf("%d", stats.FileCount)},
			{"Metric": "Storage used (MB)", "Value": fmt.Sprintf("%.2f", stats.TotalSizeMB)},
			{"Metric": "Average size (MB)", "Value": fmt.Sprintf("%.2f", stats.AverageSizeMB)},
			{"Metric": "Remaining (MB)", "Value": fmt.Sprintf("%.2f", stats.RemainingMB)},
		},
	}
	for _, a := range s.achievements.Status(userID) {
		state := fmt.Sprintf("%d/%d", a.Progress, a.Requirement.Target)
		if a.Unlocked {
			state = "unlocked " + a.UnlockedAt.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Metric": "Achievement: " + a.Name,
			"Value":  state,
		})
	}

	return s.render(dataset, "Progress Summary", "progress-summary", format)
}

func (s *ReportService) render(dataset export.Dataset, title, baseName string, format ReportFormat) (*ReportFile, error) {
	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ReportFile{
			FileName:    fmt.Sprintf("%s-%s.csv", baseName, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ReportFile{
			FileName:    fmt.Sprintf("%s-%s.pdf", baseName, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}
