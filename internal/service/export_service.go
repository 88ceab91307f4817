package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/export"
)

// ExportFormat enumerates supported history export encodings.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type historyReader interface {
	Get(ctx context.Context, id string) (*models.Classroom, error)
	History(ctx context.Context, classroomID string) ([]models.ClassroomHistory, error)
}

// ExportResult carries the rendered bytes and response metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders a room's transition ledger as a downloadable file.
type ExportService struct {
	classrooms historyReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService builds an ExportService.
func NewExportService(classrooms historyReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		classrooms: classrooms,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// HistoryExport renders the ledger for one room in the requested format.
func (s *ExportService) HistoryExport(ctx context.Context, classroomID string, format ExportFormat) (*ExportResult, error) {
	room, err := s.classrooms.Get(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	entries, err := s.classrooms.History(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Action", "By", "At", "Until", "Reason"},
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		row := map[string]string{
			"Action": string(entry.Action),
			"By":     entry.ByUserName,
			"At":     entry.At.Format(time.RFC3339),
		}
		if entry.Until != nil {
			row["Until"] = entry.Until.Format(time.RFC3339)
		}
		if entry.Reason != nil {
			row["Reason"] = *entry.Reason
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("history-%s-%s.csv", room.Name, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportPDF:
		title := fmt.Sprintf("Occupancy history for %s (%s)", room.Name, room.Building)
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("history-%s-%s.pdf", room.Name, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
