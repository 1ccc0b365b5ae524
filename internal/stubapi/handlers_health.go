// handlers_health.go - Health check handler
package stubapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	apiKeyConfigured bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(apiKeyConfigured bool) HealthHandler {
	return &HealthHandlerImpl{apiKeyConfigured: apiKeyConfigured}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		APIKeyConfigured: h.apiKeyConfigured,
	})
}
