// handlers_manuals.go - Manual upload, listing and deletion
package stubapi

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/storage"
)

const (
	detailOnlyPDF        = "Only PDF files are supported"
	detailManualNotFound = "Manual not found"
)

// ManualHandlerImpl implements the ManualHandler interface
type ManualHandlerImpl struct {
	store storage.Store
	log   *logger.Logger
}

// NewManualHandler creates a new manual handler
func NewManualHandler(store storage.Store, log *logger.Logger) ManualHandler {
	return &ManualHandlerImpl{
		store: store,
		log:   logger.OrNop(log).With("component", "stubapi.manuals"),
	}
}

// HandleListManuals returns every stored manual name
func (h *ManualHandlerImpl) HandleListManuals(c echo.Context) error {
	files, err := h.store.List()
	if err != nil {
		return NewInternalError("Error listing manuals", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return c.JSON(http.StatusOK, models.ManualsResponse{Manuals: names})
}

// HandleUploadManual stores a multipart "file" field. Only PDFs are accepted,
// checked by extension and by content.
func (h *ManualHandlerImpl) HandleUploadManual(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("No file provided")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return NewBadRequestError(detailOnlyPDF)
	}

	src, err := fh.Open()
	if err != nil {
		return NewInternalError("Error reading upload", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return NewInternalError("Error reading upload", err)
	}
	if !mt.Is("application/pdf") {
		return NewBadRequestError(detailOnlyPDF)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return NewInternalError("Error reading upload", err)
	}

	info, err := h.store.Save(fh.Filename, src)
	if err != nil {
		return NewInternalError("Error saving manual", err)
	}

	h.log.Info("manual stored", "manual", info.Name, "size", info.Size)
	return c.JSON(http.StatusOK, models.UploadResponse{
		Filename: info.Name,
		Message:  "Manual uploaded successfully",
	})
}

// HandleDeleteManual removes a manual by name
func (h *ManualHandlerImpl) HandleDeleteManual(c echo.Context) error {
	name := c.Param("name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	if err := h.store.Delete(name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(detailManualNotFound)
		}
		return NewInternalError("Error deleting manual", err)
	}

	h.log.Info("manual deleted", "manual", name)
	return c.NoContent(http.StatusNoContent)
}
