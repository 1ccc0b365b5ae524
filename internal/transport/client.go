// Package transport issues requests to the manual question-answering
// service and normalizes every outcome into a success body or an
// apperr.Error.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/apperr"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
)

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 64 * 1024

// Client talks to the service over HTTP. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a client for baseURL. A zero timeout means no client-side limit.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.OrNop(log).With("component", "transport"),
	}
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request sends a JSON request. body is encoded when non-nil. The raw
// success body is returned; it is nil when the server sent nothing.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

// RequestMultipart posts a single file as multipart/form-data under field.
func (c *Client) RequestMultipart(ctx context.Context, path, field, filename string, r io.Reader) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request unreachable",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
		)
		return nil, apperr.NewUnreachableError(err)
	}
	defer resp.Body.Close()

	c.log.Debug("request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperr.NewRejectedError(resp.StatusCode, errorDetail(data))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewUnreachableError(fmt.Errorf("reading response: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

// errorDetail extracts the message of an error payload. FastAPI puts it in
// "detail"; other services use "message". Non-string details (validation
// error lists) are ignored so callers fall back to a generic text.
func errorDetail(data []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// decode unmarshals a success body into out, reporting a malformed body as
// a rejected response.
func decode(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return apperr.NewRejectedError(http.StatusOK, "malformed response")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apperr.Error{
			Kind:   apperr.KindRejected,
			Status: http.StatusOK,
			Detail: "malformed response",
			Cause:  err,
		}
	}
	return nil
}
