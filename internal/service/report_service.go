package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medpal-dev/medpal-api/internal/dto"
	"github.com/medpal-dev/medpal-api/internal/models"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
	"github.com/medpal-dev/medpal-api/pkg/export"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) (string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Report, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Report, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, update models.ReportUpdate) (*models.Report, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheObserver interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// ReportCacheConfig tunes the per-owner listing cache.
type ReportCacheConfig struct {
	Enabled bool
	ListTTL time.Duration
}

// ReportService is the domain layer for the report lifecycle: input
// validation, defaulting, and owner scoping. Ownership itself is enforced by
// the store's filtered statements; this layer only translates a miss into
// NOT_FOUND without revealing whether the row exists for someone else.
type ReportService struct {
	repo      reportStore
	cache     listCache
	cacheCfg  ReportCacheConfig
	metrics   cacheObserver
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs a ReportService. Cache and metrics may be nil.
func NewReportService(repo reportStore, cache listCache, cacheCfg ReportCacheConfig, metrics cacheObserver, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:      repo,
		cache:     cache,
		cacheCfg:  cacheCfg,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Create validates and persists a new report for the owner, returning its id.
func (s *ReportService) Create(ctx context.Context, ownerID string, req dto.CreateReportRequest) (string, error) {
	if ownerID == "" {
		return "", appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and extracted text are required")
	}

	category := req.Category
	if category == "" {
		category = models.DefaultCategory
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	report := &models.Report{
		OwnerID:       ownerID,
		Title:         req.Title,
		ExtractedText: req.ExtractedText,
		ImageURL:      req.ImageURL,
		Category:      category,
		Tags:          tags,
	}

	id, err := s.repo.Create(ctx, report)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save report")
	}

	s.invalidateList(ctx, ownerID)
	s.logger.Info("report created", zap.String("report_id", id))
	return id, nil
}

// List returns the owner's reports, most recent first.
func (s *ReportService) List(ctx context.Context, ownerID string) ([]models.Report, error) {
	if ownerID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	key := s.listKey(ownerID)
	if s.cacheCfg.Enabled && s.cache != nil {
		cached := []models.Report{}
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report list cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheMiss()
		}
	}

	reports, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list reports")
	}

	if s.cacheCfg.Enabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, reports, s.cacheCfg.ListTTL); err != nil {
			s.logger.Warn("report list cache write failed", zap.Error(err))
		}
	}

	return reports, nil
}

// Get returns a single report. A report owned by someone else is reported as
// not found.
func (s *ReportService) Get(ctx context.Context, ownerID, id string) (*models.Report, error) {
	if ownerID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	report, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch report")
	}
	return report, nil
}

// Update applies a partial metadata update and returns the refreshed report.
func (s *ReportService) Update(ctx context.Context, ownerID, id string, req dto.UpdateReportRequest) (*models.Report, error) {
	if ownerID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	update := models.ReportUpdate{
		Title:    req.Title,
		Category: req.Category,
		Tags:     req.Tags,
	}

	report, err := s.repo.UpdateByIDAndOwner(ctx, id, ownerID, update)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update report")
	}

	s.invalidateList(ctx, ownerID)
	return report, nil
}

// Delete removes the owner's report. Deleting an already-deleted or foreign
// report is not found, never success.
func (s *ReportService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return appErrors.ErrUnauthorized
	}

	deleted, err := s.repo.DeleteByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete report")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}

	s.invalidateList(ctx, ownerID)
	return nil
}

// ExportCSV renders the owner's full listing as CSV.
func (s *ReportService) ExportCSV(ctx context.Context, ownerID string) ([]byte, error) {
	reports, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Title", "Category", "Tags", "Created At", "Updated At", "Extracted Text"},
	}
	for _, r := range reports {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":             r.ID,
			"Title":          r.Title,
			"Category":       r.Category,
			"Tags":           strings.Join(r.Tags, ", "),
			"Created At":     r.CreatedAt.UTC().Format(time.RFC3339),
			"Updated At":     r.UpdatedAt.UTC().Format(time.RFC3339),
			"Extracted Text": r.ExtractedText,
		})
	}

	rendered, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return rendered, nil
}

// ExportPDF renders one report as a printable PDF.
func (s *ReportService) ExportPDF(ctx context.Context, ownerID, id string) ([]byte, error) {
	report, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	doc := export.Document{
		Title: report.Title,
		Meta: []export.MetaLine{
			{Label: "Category", Value: report.Category},
			{Label: "Tags", Value: strings.Join(report.Tags, ", ")},
			{Label: "Created", Value: report.CreatedAt.UTC().Format("2006-01-02 15:04")},
			{Label: "Updated", Value: report.UpdatedAt.UTC().Format("2006-01-02 15:04")},
		},
		Body: report.ExtractedText,
	}

	rendered, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return rendered, nil
}

func (s *ReportService) listKey(ownerID string) string {
	return fmt.Sprintf("reports:list:%s", ownerID)
}

func (s *ReportService) invalidateList(ctx context.Context, ownerID string) {
	if !s.cacheCfg.Enabled || s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.listKey(ownerID)); err != nil {
		s.logger.Warn("report list cache invalidation failed", zap.Error(err))
	}
}
