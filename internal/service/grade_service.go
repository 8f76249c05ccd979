package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
	"github.com/noah-isme/course-compass-api/pkg/export"
)

type gradeRepository interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.GradeDetail, error)
	Create(ctx context.Context, grade *models.Grade) error
}

// GradeList is a student's grades with their mean percentage.
type GradeList struct {
	Items   []models.GradeDetail
	Average *float64
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

var transcriptHeaders = []string{"Course", "Code", "Assignment", "Grade", "Letter", "Points", "Graded At"}

// GradeService records grades and renders transcripts.
type GradeService struct {
	repo        gradeRepository
	courses     courseFinder
	enrollments enrollmentChecker
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepository, courses courseFinder, enrollments enrollmentChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{
		repo:        repo,
		courses:     courses,
		enrollments: enrollments,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// ListMine returns the session student's grades, newest first.
func (s *GradeService) ListMine(ctx context.Context, session models.Session) (*GradeList, error) {
	items, err := s.repo.ListByStudent(ctx, session.UserID, 0)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load grades")
	}
	if items == nil {
		items = []models.GradeDetail{}
	}
	return &GradeList{Items: items, Average: averageGrade(items)}, nil
}

// Record stores a grade for an enrolled student. The letter is derived from the percentage.
func (s *GradeService) Record(ctx context.Context, session models.Session, req models.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid grade payload")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	if !CanManageCourse(session, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can record grades")
	}
	enrolled, err := s.enrollments.IsActive(ctx, req.StudentID, course.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this course")
	}

	letter := models.LetterFor(*req.GradeValue)
	grade := &models.Grade{
		StudentID:      req.StudentID,
		CourseID:       course.ID,
		AssignmentID:   req.AssignmentID,
		GradeValue:     *req.GradeValue,
		GradeLetter:    &letter,
		PointsEarned:   req.PointsEarned,
		PointsPossible: req.PointsPossible,
		GradedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Internal(err, "failed to record grade")
	}
	s.cache.Delete(ctx, DashboardKey(models.RoleStudent, req.StudentID))
	return grade, nil
}

// Export renders the session student's transcript as csv or pdf.
func (s *GradeService) Export(ctx context.Context, session models.Session, format models.ReportFormat) (*ExportFile, error) {
	list, err := s.ListMine(ctx, session)
	if err != nil {
		return nil, err
	}
	stamp := s.now().UTC().Format("20060102")
	switch models.ReportFormat(strings.ToLower(string(format))) {
	case models.ReportFormatCSV, "":
		data, err := s.csv.Render(transcriptDataset(list.Items))
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render transcript")
		}
		return &ExportFile{Filename: "transcript-" + stamp + ".csv", ContentType: s.csv.ContentType(), Data: data}, nil
	case models.ReportFormatPDF:
		data, err := s.TranscriptPDF(ctx, session)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Filename: "transcript-" + stamp + ".pdf", ContentType: s.pdf.ContentType(), Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// TranscriptPDF renders the session student's grades with the average as footer.
func (s *GradeService) TranscriptPDF(ctx context.Context, session models.Session) ([]byte, error) {
	list, err := s.ListMine(ctx, session)
	if err != nil {
		return nil, err
	}
	title := "Transcript"
	if session.FullName != "" {
		title += " - " + session.FullName
	}
	footer := []string{"Generated " + s.now().UTC().Format("Jan 2, 2006 15:04 MST")}
	if list.Average != nil {
		footer = append(footer, fmt.Sprintf("Average: %.2f (%s)", *list.Average, models.LetterFor(*list.Average)))
	}
	data, err := s.pdf.Render(transcriptDataset(list.Items), title, footer...)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render transcript")
	}
	return data, nil
}

func transcriptDataset(items []models.GradeDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		row := map[string]string{
			"Course":    item.CourseTitle,
			"Code":      item.CourseCode,
			"Grade":     fmt.Sprintf("%.2f", item.GradeValue),
			"Graded At": item.GradedAt.UTC().Format("2006-01-02"),
		}
		if item.AssignmentTitle != nil {
			row["Assignment"] = *item.AssignmentTitle
		}
		if item.GradeLetter != nil {
			row["Letter"] = *item.GradeLetter
		}
		if item.PointsEarned != nil && item.PointsPossible != nil {
			row["Points"] = fmt.Sprintf("%g/%g", *item.PointsEarned, *item.PointsPossible)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: transcriptHeaders, Rows: rows}
}

func averageGrade(items []models.GradeDetail) *float64 {
	if len(items) == 0 {
		return nil
	}
	total := 0.0
	for _, item := range items {
		total += item.GradeValue
	}
	avg := math.Round(total/float64(len(items))*100) / 100
	return &avg
}
