package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/gradebook"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/export"
)

// Transcript export formats.
const (
	TranscriptFormatCSV = "csv"
	TranscriptFormatPDF = "pdf"
)

// TranscriptExport carries rendered transcript bytes and the HTTP metadata
// needed to serve them.
type TranscriptExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// TranscriptService renders a student's grade history as a downloadable
// document with the grade point summary appended.
type TranscriptService struct {
	students gradeStudentReader
	grades   studentGradesReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewTranscriptService constructs a TranscriptService.
func NewTranscriptService(students gradeStudentReader, grades studentGradesReader, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{
		students: students,
		grades:   grades,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// Export renders the transcript for a student in the requested format.
// Students may only export their own transcript.
func (s *TranscriptService) Export(ctx context.Context, p authz.Principal, studentID, format string) (*TranscriptExport, error) {
	if p.Role == models.RoleStudent && p.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only export their own transcript")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	dataset := buildTranscriptDataset(grades)

	switch format {
	case TranscriptFormatCSV, "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptExport{
			FileName:    fmt.Sprintf("transcript-%s.csv", student.ID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case TranscriptFormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Academic Transcript - %s", student.Name))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptExport{
			FileName:    fmt.Sprintf("transcript-%s.pdf", student.ID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported transcript format")
	}
}

func buildTranscriptDataset(grades []models.Grade) export.Dataset {
	headers := []string{"Course Code", "Course", "Credit Units", "Score", "Grade", "Grade Point"}
	rows := make([]map[string]string, 0, len(grades))
	for _, g := range grades {
		rows = append(rows, map[string]string{
			"Course Code":  g.CourseCode,
			"Course":       g.CourseName,
			"Credit Units": strconv.Itoa(g.CreditUnits),
			"Score":        strconv.Itoa(g.Score),
			"Grade":        g.Letter,
			"Grade Point":  strconv.FormatFloat(g.GradePoint, 'f', 1, 64),
		})
	}
	return export.Dataset{
		Headers: headers,
		Rows:    rows,
		Footer: []string{
			fmt.Sprintf("GPA: %.2f", gradebook.GPA(grades)),
			fmt.Sprintf("CGPA: %.2f", gradebook.CGPA(grades)),
			fmt.Sprintf("Standing: %s", gradebook.Classify(grades)),
		},
	}
}
