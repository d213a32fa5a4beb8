package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medpal-dev/medpal-api/internal/dto"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
	"github.com/medpal-dev/medpal-api/pkg/response"
)

type ocrService interface {
	Extract(ctx context.Context, ownerID string, image []byte, filename, contentType string) (*dto.ExtractResult, error)
}

// OcrHandler exposes the image-to-text extraction endpoint.
type OcrHandler struct {
	service ocrService
}

// NewOcrHandler builds a new handler.
func NewOcrHandler(service ocrService) *OcrHandler {
	return &OcrHandler{service: service}
}

// Extract godoc
// @Summary Extract text from an uploaded report image
// @Description Runs one OCR pass. Works without a session; signed-in callers may also get a retained image URL.
// @Tags OCR
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Report image"
// @Success 200 {object} dto.ExtractResult
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /ocr/extract [post]
func (h *OcrHandler) Extract(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "image file is required"))
		return
	}
	defer file.Close() //nolint:errcheck

	// The image is forwarded exactly as received; no size or type gate here.
	image, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read image"))
		return
	}

	result, err := h.service.Extract(c.Request.Context(), ownerID(c), image, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
