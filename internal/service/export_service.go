package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/darulhuda/institute-api/internal/dto"
	"github.com/darulhuda/institute-api/pkg/export"
)

// Report export formats. Unrecognized values resolve silently to JSON.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

type csvRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportResult carries a rendered report ready to stream to the client.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
	Format      string
}

// ExportService serializes composed reports into downloadable documents.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// Render serializes the report in the requested format.
func (s *ExportService) Render(report *dto.ComprehensiveAnalyticsReport, format string) (*ExportResult, error) {
	if report == nil {
		return nil, fmt.Errorf("report nil")
	}
	format = normalizeFormat(format)
	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("analytics_%s_%s.%s", report.TimeRange, timestamp, format)

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(buildReportDocument(report))
		if err != nil {
			return nil, fmt.Errorf("render csv report: %w", err)
		}
		return &ExportResult{Payload: payload, ContentType: "text/csv", Filename: filename, Format: format}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(buildReportDocument(report))
		if err != nil {
			return nil, fmt.Errorf("render pdf report: %w", err)
		}
		return &ExportResult{Payload: payload, ContentType: "application/pdf", Filename: filename, Format: format}, nil
	default:
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render json report: %w", err)
		}
		return &ExportResult{Payload: payload, ContentType: "application/json", Filename: filename, Format: format}, nil
	}
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case ExportFormatCSV:
		return ExportFormatCSV
	case ExportFormatPDF:
		return ExportFormatPDF
	default:
		return ExportFormatJSON
	}
}

func buildReportDocument(report *dto.ComprehensiveAnalyticsReport) export.Document {
	overview := export.Section{
		Name:    "OVERVIEW METRICS",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Students", strconv.Itoa(report.Overview.TotalStudents)},
			{"Total Teachers", strconv.Itoa(report.Overview.TotalTeachers)},
			{"Total Courses", strconv.Itoa(report.Overview.TotalCourses)},
			{"Total Attendance Records", strconv.Itoa(report.Overview.TotalAttendanceRecords)},
			{"Average Attendance Rate", formatFloat(report.Overview.AverageAttendanceRate)},
			{"Active Students", strconv.Itoa(report.Overview.ActiveStudents)},
			{"Completed Assignments", strconv.Itoa(report.Overview.CompletedAssignments)},
		},
	}

	students := export.Section{
		Name: "STUDENT PERFORMANCE",
		Headers: []string{
			"Student", "Attendance Rate", "Assignments Completed",
			"Average Grade", "Memorization Progress", "Composite Score",
		},
		Rows: make([][]string, 0, len(report.StudentPerformance)),
	}
	for _, row := range report.StudentPerformance {
		students.Rows = append(students.Rows, []string{
			row.StudentName,
			formatFloat(row.AttendanceRate),
			strconv.Itoa(row.AssignmentsCompleted),
			formatFloat(row.AverageGrade),
			formatFloat(row.MemorizationProgress),
			formatFloat(row.CompositeScore),
		})
	}

	return export.Document{
		Title:    fmt.Sprintf("Comprehensive Analytics Report (%s)", report.TimeRange),
		Sections: []export.Section{overview, students},
	}
}

// formatFloat keeps numeric values exact so exported metrics parse back unchanged.
func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
