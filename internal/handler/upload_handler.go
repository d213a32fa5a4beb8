package handler

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
	"github.com/medpal-dev/medpal-api/pkg/response"
	"github.com/medpal-dev/medpal-api/pkg/storage"
)

type uploadOpener interface {
	Open(filename string) (*os.File, error)
}

// UploadHandler serves retained report images behind signed tokens. The
// token, not the session, is the credential on this path.
type UploadHandler struct {
	archive uploadOpener
	signer  *storage.SignedURLSigner
}

// NewUploadHandler builds a new handler.
func NewUploadHandler(archive uploadOpener, signer *storage.SignedURLSigner) *UploadHandler {
	return &UploadHandler{archive: archive, signer: signer}
}

// Download godoc
// @Summary Download a retained report image
// @Tags Uploads
// @Param token path string true "Signed download token"
// @Success 200 {string} string
// @Failure 404 {object} map[string]string
// @Router /uploads/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	if h.archive == nil || h.signer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "uploads are not enabled"))
		return
	}

	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		// Invalid and expired tokens are both a plain not-found.
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "upload not found"))
		return
	}

	file, err := h.archive.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "upload not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=60")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
