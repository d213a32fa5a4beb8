package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal-dev/medpal-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func reportRows(reports ...models.Report) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "extracted_text", "image_url", "category", "tags", "created_at", "updated_at"})
	for _, r := range reports {
		// tags travel as the Postgres array literal, the way the driver
		// delivers them.
		tags := "{" + strings.Join(r.Tags, ",") + "}"
		var imageURL interface{}
		if r.ImageURL != nil {
			imageURL = *r.ImageURL
		}
		rows.AddRow(r.ID, r.OwnerID, r.Title, r.ExtractedText, imageURL, r.Category, tags, r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func TestReportCreateAssignsIDAndTimestamps(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.Report{
		OwnerID:       "owner-a",
		Title:         "CBC",
		ExtractedText: "WBC 5.6",
		Category:      "General",
	}
	id, err := repo.Create(context.Background(), report)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, report.ID)
	assert.False(t, report.CreatedAt.IsZero())
	assert.Equal(t, report.CreatedAt, report.UpdatedAt)
	assert.NotNil(t, report.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportListByOwnerOrdersByCreatedAtDesc(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now().UTC()
	rows := reportRows(
		models.Report{ID: "r3", OwnerID: "owner-a", Title: "t3", Tags: pq.StringArray{}, CreatedAt: now, UpdatedAt: now},
		models.Report{ID: "r2", OwnerID: "owner-a", Title: "t2", Tags: pq.StringArray{}, CreatedAt: now.Add(-time.Hour), UpdatedAt: now},
		models.Report{ID: "r1", OwnerID: "owner-a", Title: "t1", Tags: pq.StringArray{}, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now},
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, title, extracted_text, image_url, category, tags, created_at, updated_at FROM reports WHERE owner_id = $1 ORDER BY created_at DESC")).
		WithArgs("owner-a").
		WillReturnRows(rows)

	reports, err := repo.ListByOwner(context.Background(), "owner-a")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "r3", reports[0].ID)
	assert.Equal(t, "r2", reports[1].ID)
	assert.Equal(t, "r1", reports[2].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportListByOwnerEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("SELECT .* FROM reports WHERE owner_id").
		WithArgs("owner-b").
		WillReturnRows(reportRows())

	reports, err := repo.ListByOwner(context.Background(), "owner-b")
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportFindByIDAndOwnerFiltersBoth(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, title, extracted_text, image_url, category, tags, created_at, updated_at FROM reports WHERE id = $1 AND owner_id = $2")).
		WithArgs("r1", "owner-a").
		WillReturnRows(reportRows(models.Report{ID: "r1", OwnerID: "owner-a", Title: "CBC", ExtractedText: "WBC 5.6", Category: "General", Tags: pq.StringArray{}, CreatedAt: now, UpdatedAt: now}))

	report, err := repo.FindByIDAndOwner(context.Background(), "r1", "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "CBC", report.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportFindByIDAndOwnerMissReturnsNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("SELECT .* FROM reports WHERE id").
		WithArgs("r1", "owner-b").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIDAndOwner(context.Background(), "r1", "owner-b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportUpdateByIDAndOwnerPartial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reports SET tags = $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3 RETURNING id, owner_id, title, extracted_text, image_url, category, tags, created_at, updated_at")).
		WithArgs(pq.StringArray{"x"}, "r1", "owner-a").
		WillReturnRows(reportRows(models.Report{ID: "r1", OwnerID: "owner-a", Title: "CBC", Category: "General", Tags: pq.StringArray{"x"}, CreatedAt: now.Add(-time.Hour), UpdatedAt: now}))

	tags := []string{"x"}
	updated, err := repo.UpdateByIDAndOwner(context.Background(), "r1", "owner-a", models.ReportUpdate{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "CBC", updated.Title)
	assert.Equal(t, pq.StringArray{"x"}, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportUpdateByIDAndOwnerAllFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reports SET title = $1, category = $2, tags = $3, updated_at = NOW() WHERE id = $4 AND owner_id = $5")).
		WithArgs("New", "Lab", pq.StringArray{"a", "b"}, "r1", "owner-a").
		WillReturnRows(reportRows(models.Report{ID: "r1", OwnerID: "owner-a", Title: "New", Category: "Lab", Tags: pq.StringArray{"a", "b"}, CreatedAt: now, UpdatedAt: now}))

	title, category, tags := "New", "Lab", []string{"a", "b"}
	updated, err := repo.UpdateByIDAndOwner(context.Background(), "r1", "owner-a", models.ReportUpdate{Title: &title, Category: &category, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Lab", updated.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportUpdateByIDAndOwnerMiss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("UPDATE reports SET").
		WillReturnError(sql.ErrNoRows)

	title := "New"
	_, err := repo.UpdateByIDAndOwner(context.Background(), "r1", "owner-b", models.ReportUpdate{Title: &title})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportDeleteByIDAndOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1 AND owner_id = $2")).
		WithArgs("r1", "owner-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteByIDAndOwner(context.Background(), "r1", "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportDeleteByIDAndOwnerMiss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("DELETE FROM reports WHERE id").
		WithArgs("r1", "owner-b").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.DeleteByIDAndOwner(context.Background(), "r1", "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
