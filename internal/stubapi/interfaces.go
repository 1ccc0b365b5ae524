// interfaces.go - Handler interface definitions
package stubapi

import "github.com/labstack/echo/v4"

// HealthHandler reports server health
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ManualHandler handles manual upload, listing and deletion
type ManualHandler interface {
	HandleListManuals(c echo.Context) error
	HandleUploadManual(c echo.Context) error
	HandleDeleteManual(c echo.Context) error
}

// AskHandler answers questions
type AskHandler interface {
	HandleAsk(c echo.Context) error
}
