package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medpal-dev/medpal-api/internal/dto"
	"github.com/medpal-dev/medpal-api/internal/ocr"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
)

type textExtractor interface {
	ExtractText(ctx context.Context, image []byte, filename, contentType string) (*ocr.Result, error)
}

type imageArchive interface {
	Save(filename string, data []byte) (string, error)
}

type uploadSigner interface {
	Generate(uploadID, relPath string) (string, time.Time, error)
}

type ocrObserver interface {
	ObserveOCRRequest(outcome string, duration time.Duration)
}

// OcrService is the server half of the ingest flow: forward the image to the
// gateway, normalize the outcome, and optionally retain the original image
// for authenticated callers. It never writes to the report store; persistence
// is a separate explicit create.
type OcrService struct {
	extractor      textExtractor
	archive        imageArchive
	signer         uploadSigner
	uploadsEnabled bool
	metrics        ocrObserver
	logger         *zap.Logger
	now            func() time.Time
}

// NewOcrService builds an OcrService. Archive, signer, and metrics may be nil.
func NewOcrService(extractor textExtractor, archive imageArchive, signer uploadSigner, uploadsEnabled bool, metrics ocrObserver, logger *zap.Logger) *OcrService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OcrService{
		extractor:      extractor,
		archive:        archive,
		signer:         signer,
		uploadsEnabled: uploadsEnabled,
		metrics:        metrics,
		logger:         logger,
		now:            time.Now,
	}
}

// Extract runs one OCR pass over the uploaded image. ownerID is empty for
// unauthenticated callers, who still get the extracted text but no retained
// image. The image is forwarded as received; size and type are whatever the
// client sent.
func (s *OcrService) Extract(ctx context.Context, ownerID string, image []byte, filename, contentType string) (*dto.ExtractResult, error) {
	start := s.now()
	result, err := s.extractor.ExtractText(ctx, image, filename, contentType)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = appErrors.FromError(err).Code
		}
		s.metrics.ObserveOCRRequest(outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	out := &dto.ExtractResult{
		ExtractedText:  result.Text,
		HasText:        result.HasText,
		SuggestedTitle: fmt.Sprintf("Report %s", s.now().UTC().Format("2006-01-02")),
	}

	if ownerID != "" && s.uploadsEnabled && s.archive != nil && s.signer != nil {
		if url := s.retainImage(ownerID, image, filename); url != "" {
			out.ImageURL = &url
		}
	}

	return out, nil
}

func (s *OcrService) retainImage(ownerID string, image []byte, filename string) string {
	uploadID := uuid.NewString()
	ext := filepath.Ext(filename)
	relPath := filepath.Join(ownerID, uploadID+ext)

	if _, err := s.archive.Save(relPath, image); err != nil {
		s.logger.Warn("failed to retain report image", zap.Error(err))
		return ""
	}

	token, _, err := s.signer.Generate(uploadID, relPath)
	if err != nil {
		s.logger.Warn("failed to sign upload token", zap.Error(err))
		return ""
	}

	return "/uploads/" + token
}
