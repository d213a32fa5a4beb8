package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal-dev/medpal-api/internal/dto"
	"github.com/medpal-dev/medpal-api/internal/middleware"
	"github.com/medpal-dev/medpal-api/internal/models"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
)

type stubReportService struct {
	lastOwnerID string
	lastID      string
	createReq   dto.CreateReportRequest
	createID    string
	createErr   error
	listReports []models.Report
	listErr     error
	report      *models.Report
	getErr      error
	updateErr   error
	deleteErr   error
	csv         []byte
	pdf         []byte
}

func (s *stubReportService) Create(_ context.Context, ownerID string, req dto.CreateReportRequest) (string, error) {
	s.lastOwnerID = ownerID
	s.createReq = req
	return s.createID, s.createErr
}

func (s *stubReportService) List(_ context.Context, ownerID string) ([]models.Report, error) {
	s.lastOwnerID = ownerID
	return s.listReports, s.listErr
}

func (s *stubReportService) Get(_ context.Context, ownerID, id string) (*models.Report, error) {
	s.lastOwnerID, s.lastID = ownerID, id
	return s.report, s.getErr
}

func (s *stubReportService) Update(_ context.Context, ownerID, id string, _ dto.UpdateReportRequest) (*models.Report, error) {
	s.lastOwnerID, s.lastID = ownerID, id
	return s.report, s.updateErr
}

func (s *stubReportService) Delete(_ context.Context, ownerID, id string) error {
	s.lastOwnerID, s.lastID = ownerID, id
	return s.deleteErr
}

func (s *stubReportService) ExportCSV(_ context.Context, ownerID string) ([]byte, error) {
	s.lastOwnerID = ownerID
	return s.csv, s.listErr
}

func (s *stubReportService) ExportPDF(_ context.Context, ownerID, id string) ([]byte, error) {
	s.lastOwnerID, s.lastID = ownerID, id
	return s.pdf, s.getErr
}

func testContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	c.Request = req
	return c, w
}

func asSession(c *gin.Context, userID string) {
	c.Set(middleware.ContextUserKey, &models.UserSession{UserID: userID})
}

func TestReportHandlerListReturnsOwnersReports(t *testing.T) {
	svc := &stubReportService{listReports: []models.Report{{ID: "r1", Title: "CBC"}}}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodGet, "/reports", nil)
	asSession(c, "owner-a")
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner-a", svc.lastOwnerID)

	var got []models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "CBC", got[0].Title)
}

func TestReportHandlerListUnauthorized(t *testing.T) {
	svc := &stubReportService{listErr: appErrors.ErrUnauthorized}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodGet, "/reports", nil)
	h.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.lastOwnerID, "no session resolves to an empty owner")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestReportHandlerCreate(t *testing.T) {
	svc := &stubReportService{createID: "report-1"}
	h := NewReportHandler(svc)

	payload := []byte(`{"title":"CBC","extractedText":"WBC 5.6","tags":["blood"]}`)
	c, w := testContext(t, http.MethodPost, "/reports", payload)
	asSession(c, "owner-a")
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "CBC", svc.createReq.Title)
	assert.Equal(t, []string{"blood"}, svc.createReq.Tags)

	var body dto.CreateReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "report-1", body.ID)
}

func TestReportHandlerCreateMalformedJSON(t *testing.T) {
	svc := &stubReportService{}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodPost, "/reports", []byte(`{"title":`))
	asSession(c, "owner-a")
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestReportHandlerCreateValidationFailure(t *testing.T) {
	svc := &stubReportService{createErr: appErrors.Clone(appErrors.ErrValidation, "title and extracted text are required")}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodPost, "/reports", []byte(`{"title":""}`))
	asSession(c, "owner-a")
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "title and extracted text are required", body["error"])
}

func TestReportHandlerGet(t *testing.T) {
	svc := &stubReportService{report: &models.Report{ID: "r1", Title: "CBC"}}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodGet, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asSession(c, "owner-a")
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", svc.lastID)

	var got models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "CBC", got.Title)
}

func TestReportHandlerGetNotFound(t *testing.T) {
	svc := &stubReportService{getErr: appErrors.Clone(appErrors.ErrNotFound, "report not found")}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodGet, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asSession(c, "owner-b")
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "report not found", body["error"])
}

func TestReportHandlerUpdate(t *testing.T) {
	svc := &stubReportService{report: &models.Report{ID: "r1", Title: "Renamed"}}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodPatch, "/reports/r1", []byte(`{"title":"Renamed"}`))
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asSession(c, "owner-a")
	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Renamed", got.Title)
}

func TestReportHandlerDelete(t *testing.T) {
	svc := &stubReportService{}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodDelete, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asSession(c, "owner-a")
	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body dto.DeleteReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
}

func TestReportHandlerDeleteNotFound(t *testing.T) {
	svc := &stubReportService{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "report not found")}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodDelete, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asSession(c, "owner-a")
	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerExportCSV(t *testing.T) {
	svc := &stubReportService{csv: []byte("ID,Title\nr1,CBC\n")}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodGet, "/reports/export", nil)
	asSession(c, "owner-a")
	h.ExportCSV(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "r1,CBC")
}

func TestReportHandlerExportPDF(t *testing.T) {
	svc := &stubReportService{pdf: []byte("%PDF-1.4 fake")}
	h := NewReportHandler(svc)

	c, w := testContext(t, http.MethodGet, "/reports/r1/pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	asSession(c, "owner-a")
	h.ExportPDF(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report-r1.pdf")
}
