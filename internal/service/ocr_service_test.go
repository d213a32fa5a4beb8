package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal-dev/medpal-api/internal/ocr"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
)

type stubExtractor struct {
	result *ocr.Result
	err    error
	image  []byte
}

func (s *stubExtractor) ExtractText(_ context.Context, image []byte, _, _ string) (*ocr.Result, error) {
	s.image = image
	return s.result, s.err
}

type stubArchive struct {
	saved   map[string][]byte
	saveErr error
}

func (s *stubArchive) Save(filename string, data []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return filename, nil
}

type stubSigner struct {
	err error
}

func (s *stubSigner) Generate(uploadID, relPath string) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "signed-" + uploadID, time.Now().Add(time.Hour), nil
}

func fixedClock(svc *OcrService, at time.Time) {
	svc.now = func() time.Time { return at }
}

func TestOcrExtractReturnsTextAndSuggestedTitle(t *testing.T) {
	extractor := &stubExtractor{result: &ocr.Result{Text: "Hemoglobin 13.2", HasText: true}}
	svc := NewOcrService(extractor, nil, nil, false, nil, nil)
	fixedClock(svc, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	result, err := svc.Extract(context.Background(), "", []byte("img"), "scan.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Hemoglobin 13.2", result.ExtractedText)
	assert.True(t, result.HasText)
	assert.Equal(t, "Report 2026-03-14", result.SuggestedTitle)
	assert.Nil(t, result.ImageURL)
}

func TestOcrExtractEmptyTextIsNotAnError(t *testing.T) {
	extractor := &stubExtractor{result: &ocr.Result{Text: "", HasText: false}}
	svc := NewOcrService(extractor, nil, nil, false, nil, nil)

	result, err := svc.Extract(context.Background(), "", []byte("img"), "blank.png", "image/png")
	require.NoError(t, err)
	assert.False(t, result.HasText)
	assert.Empty(t, result.ExtractedText)
	assert.NotEmpty(t, result.SuggestedTitle)
}

func TestOcrExtractPropagatesProviderFailure(t *testing.T) {
	extractor := &stubExtractor{err: appErrors.Clone(appErrors.ErrOcrFailed, "file type not supported")}
	svc := NewOcrService(extractor, nil, nil, false, nil, nil)

	result, err := svc.Extract(context.Background(), "", []byte("img"), "scan.bmp", "image/bmp")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, appErrors.ErrOcrFailed.Code, appErrors.FromError(err).Code)
}

func TestOcrExtractForwardsImageVerbatim(t *testing.T) {
	extractor := &stubExtractor{result: &ocr.Result{Text: "x", HasText: true}}
	svc := NewOcrService(extractor, nil, nil, false, nil, nil)

	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	_, err := svc.Extract(context.Background(), "", payload, "scan.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, payload, extractor.image)
}

func TestOcrExtractRetainsImageForAuthenticatedCaller(t *testing.T) {
	extractor := &stubExtractor{result: &ocr.Result{Text: "x", HasText: true}}
	archive := &stubArchive{}
	svc := NewOcrService(extractor, archive, &stubSigner{}, true, nil, nil)

	result, err := svc.Extract(context.Background(), "owner-a", []byte("img"), "scan.png", "image/png")
	require.NoError(t, err)
	require.NotNil(t, result.ImageURL)
	assert.True(t, strings.HasPrefix(*result.ImageURL, "/uploads/signed-"))
	require.Len(t, archive.saved, 1)
	for path := range archive.saved {
		assert.True(t, strings.HasPrefix(path, "owner-a/"))
		assert.True(t, strings.HasSuffix(path, ".png"))
	}
}

func TestOcrExtractSkipsRetentionForAnonymousCaller(t *testing.T) {
	extractor := &stubExtractor{result: &ocr.Result{Text: "x", HasText: true}}
	archive := &stubArchive{}
	svc := NewOcrService(extractor, archive, &stubSigner{}, true, nil, nil)

	result, err := svc.Extract(context.Background(), "", []byte("img"), "scan.png", "image/png")
	require.NoError(t, err)
	assert.Nil(t, result.ImageURL)
	assert.Empty(t, archive.saved)
}

func TestOcrExtractStorageFailureDoesNotFailExtraction(t *testing.T) {
	extractor := &stubExtractor{result: &ocr.Result{Text: "x", HasText: true}}
	archive := &stubArchive{saveErr: errors.New("disk full")}
	svc := NewOcrService(extractor, archive, &stubSigner{}, true, nil, nil)

	result, err := svc.Extract(context.Background(), "owner-a", []byte("img"), "scan.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "x", result.ExtractedText)
	assert.Nil(t, result.ImageURL)
}
