package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/export"
)

// ReportFormat selects the rendered output.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

// ReportFile is a rendered attendance report ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders attendance reports as CSV or PDF.
type ReportService struct {
	attendance *AttendanceService
	logger     *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(attendance *AttendanceService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{attendance: attendance, logger: logger}
}

// Generate renders the attendance records inside the caller's scope.
// The format defaults to CSV.
func (s *ReportService) Generate(ctx context.Context, scope models.AttendanceScope, query dto.ReportQuery) (*ReportFile, error) {
	format := ReportFormat(query.Format)
	if format == "" {
		format = ReportCSV
	}
	if format != ReportCSV && format != ReportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown report format %q", query.Format))
	}

	report, err := s.attendance.List(ctx, scope, query.SessionID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   "Attendance Report",
		Headers: []string{"Session", "Scheduled Start", "Student", "Email", "Status", "Join Time", "Duration (min)"},
	}
	for _, rec := range report.Records {
		joinTime := ""
		if rec.JoinTime != nil {
			joinTime = rec.JoinTime.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			rec.SessionTitle,
			rec.ScheduledStart.UTC().Format(time.RFC3339),
			rec.StudentName,
			rec.StudentEmail,
			string(rec.Status),
			joinTime,
			strconv.Itoa(rec.DurationMinutes),
		})
	}
	table.Rows = append(table.Rows, []string{
		"Summary",
		"",
		fmt.Sprintf("%d sessions", report.Stats.TotalSessions),
		"",
		fmt.Sprintf("present=%d absent=%d late=%d", report.Stats.Present, report.Stats.Absent, report.Stats.Late),
		"",
		strconv.Itoa(report.Stats.AverageDuration),
	})

	var data []byte
	var contentType string
	switch format {
	case ReportCSV:
		data, err = export.CSV(table)
		contentType = "text/csv"
	case ReportPDF:
		data, err = export.PDF(table)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	filename := fmt.Sprintf("attendance-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	s.logger.Info("attendance report generated",
		zap.String("format", string(format)), zap.Int("records", len(report.Records)))
	return &ReportFile{Filename: filename, ContentType: contentType, Data: data}, nil
}
