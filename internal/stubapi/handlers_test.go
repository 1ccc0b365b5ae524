package stubapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/storage"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newTestServer(t *testing.T, apiKey bool) (*echo.Echo, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	e := NewServer(&Dependencies{Store: store, APIKeyConfigured: apiKey}, MiddlewareOptions{})
	return e, store
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = part.Write(content)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func askRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestHandleHealth(t *testing.T) {
	for _, configured := range []bool{true, false} {
		e, _ := newTestServer(t, configured)
		rec := do(e, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body models.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, configured, body.APIKeyConfigured)
	}
}

func TestUploadAndList(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := do(e, uploadRequest(t, "manual.pdf", pdfBytes))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, "manual.pdf", up.Filename)

	rec = do(e, httptest.NewRequest(http.MethodGet, "/manuals", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"manuals":["manual.pdf"]}`, rec.Body.String())
}

func TestListManuals_Empty(t *testing.T) {
	e, _ := newTestServer(t, true)
	rec := do(e, httptest.NewRequest(http.MethodGet, "/manuals", nil))
	assert.JSONEq(t, `{"manuals":[]}`, rec.Body.String())
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		detail   string
	}{
		{"wrong extension", "notes.txt", []byte("hello"), "Only PDF files are supported"},
		{"pdf name with text content", "fake.pdf", []byte("not a pdf at all"), "Only PDF files are supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newTestServer(t, true)
			rec := do(e, uploadRequest(t, tt.filename, tt.content))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.detail, detail(t, rec))
			list, _ := store.List()
			assert.Empty(t, list)
		})
	}
}

func TestUpload_NoFile(t *testing.T) {
	e, _ := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	rec := do(e, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", detail(t, rec))
}

func TestDeleteManual(t *testing.T) {
	e, store := newTestServer(t, true)
	_, err := store.Save("owner manual.pdf", bytes.NewReader(pdfBytes))
	require.NoError(t, err)

	rec := do(e, httptest.NewRequest(http.MethodDelete, "/manuals/owner%20manual.pdf", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(e, httptest.NewRequest(http.MethodDelete, "/manuals/owner%20manual.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Manual not found", detail(t, rec))
}

func TestHandleAsk(t *testing.T) {
	e, store := newTestServer(t, true)
	_, err := store.Save("manual.pdf", bytes.NewReader(pdfBytes))
	require.NoError(t, err)

	t.Run("scoped to a manual", func(t *testing.T) {
		rec := do(e, askRequest(`{"question":"What is the tire pressure?","manual_name":"manual.pdf"}`))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"answer":"32 psi","source":"manual.pdf, p.45"}`, rec.Body.String())
	})

	t.Run("no manual", func(t *testing.T) {
		rec := do(e, askRequest(`{"question":"What is the tire pressure?","manual_name":null}`))
		require.Equal(t, http.StatusOK, rec.Code)
		var body models.AskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "32 psi", body.Answer)
		assert.Empty(t, body.Source)
	})

	t.Run("unknown manual", func(t *testing.T) {
		rec := do(e, askRequest(`{"question":"oil?","manual_name":"gone.pdf"}`))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Manual not found", detail(t, rec))
	})

	t.Run("empty question", func(t *testing.T) {
		rec := do(e, askRequest(`{"question":"  ","manual_name":null}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Question is required", detail(t, rec))
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := do(e, askRequest(`{"question":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleAsk_NoAPIKey(t *testing.T) {
	e, _ := newTestServer(t, false)
	rec := do(e, askRequest(`{"question":"oil?","manual_name":null}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "OpenAI API key not configured", detail(t, rec))
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	e, _ := newTestServer(t, true)
	rec := do(e, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, detail(t, rec))
}
