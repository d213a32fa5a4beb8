package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"go.uber.org/zap"

	"github.com/medpal-dev/medpal-api/pkg/config"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
)

// Result is the normalized outcome of a successful OCR call. HasText is false
// when the provider processed the image but found nothing readable; callers
// must treat that differently from an error.
type Result struct {
	Text    string
	HasText bool
}

// Client is a thin adapter over an OCR.space-compatible parse endpoint: one
// multipart POST per image, no retries, no timeout beyond the transport
// default. Resilience belongs to callers, not here.
type Client struct {
	endpoint string
	apiKey   string
	language string
	engine   string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient builds a client from the OCR section of the configuration.
func NewClient(cfg config.OCRConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		engine:   cfg.Engine,
		http:     &http.Client{},
		logger:   logger,
	}
}

// parseResponse mirrors the provider's wire format. ErrorMessage arrives as
// either a bare string or an array of strings depending on the failure.
type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool         `json:"IsErroredOnProcessing"`
	ErrorMessage          errorMessage `json:"ErrorMessage"`
	ErrorDetails          string       `json:"ErrorDetails"`
}

type errorMessage []string

func (m *errorMessage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*m = errorMessage{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = errorMessage(many)
	return nil
}

func (m errorMessage) String() string {
	return strings.Join(m, "; ")
}

// ExtractText submits the image and normalizes the provider response into
// plain text, an empty result, or a typed error.
func (c *Client) ExtractText(ctx context.Context, image []byte, filename, contentType string) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build ocr request")
	}
	if _, err := part.Write(image); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build ocr request")
	}
	_ = writer.WriteField("language", c.language)
	_ = writer.WriteField("isOverlayRequired", "false")
	if c.engine != "" {
		_ = writer.WriteField("OCREngine", c.engine)
	}
	if err := writer.Close(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build ocr request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build ocr request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOcrUnavailable.Code, appErrors.ErrOcrUnavailable.Status, "ocr service unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("ocr provider returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return nil, appErrors.Clone(appErrors.ErrOcrUnavailable, fmt.Sprintf("ocr provider returned status %d", resp.StatusCode))
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOcrUnavailable.Code, appErrors.ErrOcrUnavailable.Status, "decode ocr response")
	}

	if parsed.IsErroredOnProcessing {
		message := parsed.ErrorMessage.String()
		if message == "" {
			message = parsed.ErrorDetails
		}
		if message == "" {
			message = "ocr processing failed"
		}
		return nil, appErrors.Clone(appErrors.ErrOcrFailed, message)
	}

	text := ""
	if len(parsed.ParsedResults) > 0 {
		text = parsed.ParsedResults[0].ParsedText
	}
	if strings.TrimSpace(text) == "" {
		return &Result{Text: "", HasText: false}, nil
	}
	return &Result{Text: text, HasText: true}, nil
}
