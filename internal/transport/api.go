package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (models.HealthResponse, error) {
	var out models.HealthResponse
	data, err := c.Request(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return out, err
	}
	return out, decode(data, &out)
}

// ListManuals calls GET /manuals.
func (c *Client) ListManuals(ctx context.Context) ([]string, error) {
	var out models.ManualsResponse
	data, err := c.Request(ctx, http.MethodGet, "/manuals", nil)
	if err != nil {
		return nil, err
	}
	if err := decode(data, &out); err != nil {
		return nil, err
	}
	if out.Manuals == nil {
		out.Manuals = []string{}
	}
	return out.Manuals, nil
}

// UploadManual posts r as the multipart field "file".
func (c *Client) UploadManual(ctx context.Context, filename string, r io.Reader) (models.UploadResponse, error) {
	var out models.UploadResponse
	data, err := c.RequestMultipart(ctx, "/upload", "file", filename, r)
	if err != nil {
		return out, err
	}
	return out, decode(data, &out)
}

// DeleteManual calls DELETE /manuals/{name}.
func (c *Client) DeleteManual(ctx context.Context, name string) error {
	_, err := c.Request(ctx, http.MethodDelete, "/manuals/"+url.PathEscape(name), nil)
	return err
}

// Ask calls POST /ask.
func (c *Client) Ask(ctx context.Context, req models.AskRequest) (models.AskResponse, error) {
	var out models.AskResponse
	data, err := c.Request(ctx, http.MethodPost, "/ask", req)
	if err != nil {
		return out, err
	}
	return out, decode(data, &out)
}
