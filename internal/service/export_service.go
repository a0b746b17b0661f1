package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/troop-timetable-api/internal/dto"
	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
	"github.com/noah-isme/troop-timetable-api/pkg/export"
	"github.com/noah-isme/troop-timetable-api/pkg/storage"
)

// Supported export formats.
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

const exportDateLayout = "02 01"

var exportContentTypes = map[string]string{
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportFormatCSV:  "text/csv",
	ExportFormatPDF:  "application/pdf",
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix          string
	LessonHours        int
	SelfEducationHours int
}

// ExportedFile is a stored export ready to be streamed.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders committed lessons as a timetable grid and stores the
// result behind a signed download link.
type ExportService struct {
	curriculum curriculumSource
	lessons    lessonLister
	storage    fileStorage
	signer     *storage.SignedURLSigner
	renderers  map[string]sheetRenderer
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService wires the export pipeline.
func NewExportService(curriculum curriculumSource, lessons lessonLister, files fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		curriculum: curriculum,
		lessons:    lessons,
		storage:    files,
		signer:     signer,
		renderers: map[string]sheetRenderer{
			ExportFormatXLSX: export.NewXLSXExporter(),
			ExportFormatCSV:  export.NewCSVExporter(),
			ExportFormatPDF:  export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate renders the lessons selected by the request and stores the file.
func (s *ExportService) Generate(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	filter := models.LessonFilter{TroopID: req.TroopID}
	filter.DateFrom, _ = dto.ParseDate(req.DateFrom)
	filter.DateTo, _ = dto.ParseDate(req.DateTo)

	snapshot, err := s.curriculum.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	lessons, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	sheet := BuildSheet(timetable.NewCurriculum(snapshot), lessons, s.cfg.LessonHours+s.cfg.SelfEducationHours)
	data, err := renderer.Render(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	id := uuid.NewString()
	name := path.Join(s.now().UTC().Format("20060102"), fmt.Sprintf("timetable-%s.%s", id, req.Format))
	stored, err := s.storage.Save(name, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	s.logger.Info("timetable exported",
		zap.String("export_id", id),
		zap.String("format", req.Format),
		zap.Int("lessons", len(lessons)),
		zap.Int("bytes", len(data)),
	)
	return &dto.ExportTimetableResponse{
		ID:        id,
		Format:    req.Format,
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(ctx context.Context, token string) (*ExportedFile, error) {
	parsed, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	data, err := s.storage.Read(parsed.File)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export")
	}
	format := strings.TrimPrefix(path.Ext(parsed.File), ".")
	return &ExportedFile{
		Filename:    path.Base(parsed.File),
		ContentType: exportContentTypes[format],
		Data:        data,
	}, nil
}

// CleanupExpired removes stored exports whose links can no longer be valid.
func (s *ExportService) CleanupExpired(ctx context.Context) error {
	removed, err := s.storage.CleanupOlderThan(s.signer.TTL())
	if err != nil {
		return fmt.Errorf("cleanup exports: %w", err)
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("files", len(removed)))
	}
	return nil
}

// BuildSheet lays lessons out by date, then troop code, then start hour. The
// date is printed on the first row of each date group only.
func BuildSheet(c *timetable.Curriculum, lessons []models.Lesson, hours int) export.Sheet {
	troopCodes := make(map[string]string)
	for _, troop := range c.Troops() {
		troopCodes[troop.ID] = troop.Code
	}

	type rowKey struct {
		date  time.Time
		troop string
	}
	grouped := make(map[rowKey][]models.Lesson)
	keys := make([]rowKey, 0)
	for _, lesson := range lessons {
		key := rowKey{date: lesson.Date.UTC().Truncate(24 * time.Hour), troop: troopCodes[lesson.TroopID]}
		if _, ok := grouped[key]; !ok {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], lesson)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].troop < keys[j].troop
	})

	sheet := export.Sheet{Title: "Timetable", Hours: hours, SlotWidth: 2, Rows: make([]export.Row, 0, len(keys))}
	var previous time.Time
	for i, key := range keys {
		row := export.Row{Troop: key.troop}
		if i == 0 || !key.date.Equal(previous) {
			row.Date = key.date.Format(exportDateLayout)
		}
		previous = key.date

		dayLessons := grouped[key]
		sort.SliceStable(dayLessons, func(a, b int) bool {
			return dayLessons[a].InitialHour < dayLessons[b].InitialHour
		})
		for _, lesson := range dayLessons {
			theme, ok := c.Theme(lesson.ThemeID)
			if !ok {
				continue
			}
			row.Cells = append(row.Cells, sheetCell(c, lesson, theme))
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func sheetCell(c *timetable.Curriculum, lesson models.Lesson, theme models.Theme) export.Cell {
	cell := export.Cell{
		StartHour: lesson.InitialHour,
		Hours:     timetable.Span(lesson, theme),
		Theme:     theme.Number,
		SelfStudy: lesson.SelfEducation,
	}
	if discipline, ok := c.Discipline(theme.DisciplineID); ok {
		cell.Discipline = discipline.ShortName
	}
	for _, id := range lesson.TeacherIDs {
		if teacher, ok := c.Teacher(id); ok {
			cell.Teachers = append(cell.Teachers, teacher.Name)
		}
	}
	for _, id := range lesson.AudienceIDs {
		if audience, ok := c.Audience(id); ok {
			cell.Audiences = append(cell.Audiences, audience.Location)
		}
	}
	return cell
}
