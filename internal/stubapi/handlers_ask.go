// handlers_ask.go - Question answering against stored manuals
package stubapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/storage"
)

// AskHandlerImpl implements the AskHandler interface
type AskHandlerImpl struct {
	store            storage.Store
	book             *AnswerBook
	apiKeyConfigured bool
	log              *logger.Logger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(store storage.Store, book *AnswerBook, apiKeyConfigured bool, log *logger.Logger) AskHandler {
	return &AskHandlerImpl{
		store:            store,
		book:             book,
		apiKeyConfigured: apiKeyConfigured,
		log:              logger.OrNop(log).With("component", "stubapi.ask"),
	}
}

// HandleAsk answers {question, manual_name}
func (h *AskHandlerImpl) HandleAsk(c echo.Context) error {
	var req models.AskRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("Invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return NewBadRequestError("Question is required")
	}
	if !h.apiKeyConfigured {
		return NewInternalError("OpenAI API key not configured", nil)
	}

	manual := ""
	if req.ManualName != nil {
		manual = *req.ManualName
		if _, err := h.store.Get(manual); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return NewNotFoundError(detailManualNotFound)
			}
			return NewInternalError("Error reading manual", err)
		}
	}

	text, source := h.book.Lookup(req.Question, manual)
	h.log.Debug("question answered", "manual", manual, "cited", source != "")
	return c.JSON(http.StatusOK, models.AskResponse{Answer: text, Source: source})
}
