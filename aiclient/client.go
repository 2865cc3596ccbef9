// Package aiclient uploads report photos to the analyze-report endpoint.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ciudamos/types"
)

const (
	// FieldName is the multipart field the service reads the image from.
	FieldName = "image"
	Path      = "/ai/analyze-report"

	DefaultTimeout = 30 * time.Second
)

// ErrTimeout is returned when the service does not answer within the client
// timeout. It is distinct from other network failures.
var ErrTimeout = errors.New("classification request timed out")

// HTTPError is a non-2xx answer from the service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if msg := strings.TrimSpace(e.Body); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Timeout is honoured.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Analyze reads the image at path and classifies it.
func (c *Client) Analyze(ctx context.Context, path string) (types.AIResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.AIResult{}, fmt.Errorf("read image: %w", err)
	}
	return c.AnalyzeBytes(ctx, filepath.Base(path), data)
}

// AnalyzeBytes uploads data under the image field and decodes the result.
func (c *Client) AnalyzeBytes(ctx context.Context, name string, data []byte) (types.AIResult, error) {
	body, contentType, err := multipartBody(name, data)
	if err != nil {
		return types.AIResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, body)
	if err != nil {
		return types.AIResult{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return types.AIResult{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return types.AIResult{}, fmt.Errorf("classification request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return types.AIResult{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return types.AIResult{}, fmt.Errorf("read classification response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.AIResult{}, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var res types.AIResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return types.AIResult{}, fmt.Errorf("decode classification: %w", err)
	}
	return res, nil
}

func multipartBody(name string, data []byte) (*bytes.Buffer, string, error) {
	if name == "" {
		name = "photo.jpg"
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldName, escapeQuotes(name)))
	h.Set("Content-Type", http.DetectContentType(data))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
