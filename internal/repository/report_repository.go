package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/medpal-dev/medpal-api/internal/models"
)

const reportColumns = "id, owner_id, title, extracted_text, image_url, category, tags, created_at, updated_at"

// ReportRepository provides persistence for report documents. Every operation
// on an existing row filters by id AND owner_id in a single statement; the
// owner check is never split from the read or write it guards.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report and returns its identifier.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) (string, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	if report.Tags == nil {
		report.Tags = pq.StringArray{}
	}
	query := `INSERT INTO reports (id, owner_id, title, extracted_text, image_url, category, tags, created_at, updated_at)
VALUES (:id, :owner_id, :title, :extracted_text, :image_url, :category, :tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	return report.ID, nil
}

// ListByOwner returns all reports for the owner, most recent first. An owner
// with no reports yields an empty slice.
func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE owner_id = $1 ORDER BY created_at DESC", reportColumns)
	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, query, ownerID); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// FindByIDAndOwner fetches one report. A row owned by someone else surfaces
// as sql.ErrNoRows, same as a missing id.
func (r *ReportRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1 AND owner_id = $2", reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id, ownerID); err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateByIDAndOwner applies the provided partial update and refreshes
// updated_at in the same statement, returning the refreshed row. Only title,
// category, and tags are mutable. sql.ErrNoRows means no matching row for
// this owner.
func (r *ReportRepository) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, update models.ReportUpdate) (*models.Report, error) {
	set := []string{}
	args := []interface{}{}
	if update.Title != nil {
		set = append(set, fmt.Sprintf("title = $%d", len(args)+1))
		args = append(args, *update.Title)
	}
	if update.Category != nil {
		set = append(set, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *update.Category)
	}
	if update.Tags != nil {
		set = append(set, fmt.Sprintf("tags = $%d", len(args)+1))
		args = append(args, pq.StringArray(*update.Tags))
	}
	set = append(set, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE reports SET %s WHERE id = $%d AND owner_id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args)+1, len(args)+2, reportColumns)
	args = append(args, id, ownerID)

	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, args...); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteByIDAndOwner removes the report. Returns false when nothing matched
// the id/owner pair.
func (r *ReportRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete report result: %w", err)
	}
	return affected == 1, nil
}
