// Package conversation drives question/answer exchanges. Every submitted
// question gets an exchange id and its answer is matched by that id only,
// so exchanges may resolve in any order.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/apperr"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/events"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/notify"
)

const (
	msgEmptyQuestion = "Please enter a question"
	msgAskFailed     = "Failed to get response"
)

// ErrNotEmpty is returned by Restore when the conversation already has content.
var ErrNotEmpty = errors.New("conversation is not empty")

// Backend answers questions.
type Backend interface {
	Ask(ctx context.Context, req models.AskRequest) (models.AskResponse, error)
}

// Selection supplies the manual a question is scoped to.
type Selection interface {
	Selected() (string, bool)
}

// Coordinator owns the conversation: settled turns and pending exchanges in
// display order.
type Coordinator struct {
	backend   Backend
	selection Selection
	notifier  notify.Notifier
	bus       *events.Bus
	log       *logger.Logger

	mu      sync.Mutex
	entries []models.Entry
	wg      sync.WaitGroup
}

// NewCoordinator creates an empty conversation showing the welcome placeholder.
func NewCoordinator(backend Backend, selection Selection, notifier notify.Notifier, bus *events.Bus, log *logger.Logger) *Coordinator {
	return &Coordinator{
		backend:   backend,
		selection: selection,
		notifier:  notifier,
		bus:       bus,
		log:       logger.OrNop(log).With("component", "conversation"),
	}
}

// Submit appends the question and a pending marker, then asks the service
// in the background. It returns the exchange id.
func (c *Coordinator) Submit(ctx context.Context, question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		c.notify(msgEmptyQuestion, models.SeverityError)
		return "", apperr.NewInvalidInputError(msgEmptyQuestion)
	}

	req := models.AskRequest{Question: q}
	if c.selection != nil {
		if name, ok := c.selection.Selected(); ok {
			req.ManualName = &name
		}
	}

	exchangeID := uuid.New().String()
	now := time.Now()

	c.mu.Lock()
	c.entries = append(c.entries,
		models.Entry{
			Kind:       models.EntryTurn,
			ExchangeID: exchangeID,
			Turn: models.Turn{
				ID:         uuid.New().String(),
				ExchangeID: exchangeID,
				Role:       models.RoleUser,
				Content:    q,
				CreatedAt:  now,
			},
			CreatedAt: now,
		},
		models.Entry{Kind: models.EntryPending, ExchangeID: exchangeID, CreatedAt: now},
	)
	c.publishLocked(exchangeID)
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug("question submitted", "exchange", exchangeID, "manual", req.ManualName)
	go c.exchange(ctx, exchangeID, req)
	return exchangeID, nil
}

func (c *Coordinator) exchange(ctx context.Context, exchangeID string, req models.AskRequest) {
	defer c.wg.Done()

	start := time.Now()
	resp, err := c.backend.Ask(ctx, req)
	if err != nil && ctx.Err() != nil {
		// The caller is going away; that is not a service failure.
		c.abandon(exchangeID)
		return
	}
	if err != nil {
		msg := apperr.Message(err, msgAskFailed)
		if c.resolve(exchangeID, "Error: "+msg, "", true) {
			c.log.Warn("question failed", "exchange", exchangeID, "error", err)
			c.notify(msg, models.SeverityError)
		}
		return
	}

	if c.resolve(exchangeID, resp.Answer, resp.Source, false) {
		c.log.Debug("question answered", "exchange", exchangeID, "duration", time.Since(start))
	}
}

// resolve replaces the pending marker of exchangeID with an assistant turn.
// It reports false when the exchange is no longer live.
func (c *Coordinator) resolve(exchangeID, content, source string, isError bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.Kind != models.EntryPending || e.ExchangeID != exchangeID {
			continue
		}
		now := time.Now()
		c.entries[i] = models.Entry{
			Kind:       models.EntryTurn,
			ExchangeID: exchangeID,
			Turn: models.Turn{
				ID:         uuid.New().String(),
				ExchangeID: exchangeID,
				Role:       models.RoleAssistant,
				Content:    content,
				Source:     source,
				IsError:    isError,
				CreatedAt:  now,
			},
			CreatedAt: now,
		}
		c.publishLocked(exchangeID)
		return true
	}

	c.log.Debug("dropping stale answer", "exchange", exchangeID)
	return false
}

// abandon removes the pending marker of exchangeID without an answer.
func (c *Coordinator) abandon(exchangeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.Kind == models.EntryPending && e.ExchangeID == exchangeID {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			c.log.Debug("question abandoned", "exchange", exchangeID)
			c.publishLocked(exchangeID)
			return
		}
	}
}

// Clear discards every turn and pending exchange. Answers still in flight
// are dropped when they arrive.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.publishLocked("")
}

// Restore seeds an empty conversation with saved turns.
func (c *Coordinator) Restore(turns []models.Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) > 0 {
		return ErrNotEmpty
	}
	for _, t := range turns {
		c.entries = append(c.entries, models.Entry{
			Kind:       models.EntryTurn,
			ExchangeID: t.ExchangeID,
			Turn:       t,
			CreatedAt:  t.CreatedAt,
		})
	}
	if len(turns) > 0 {
		c.publishLocked("")
	}
	return nil
}

// Entries returns the conversation in display order.
func (c *Coordinator) Entries() []models.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Entry(nil), c.entries...)
}

// Turns returns only the settled turns.
func (c *Coordinator) Turns() []models.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := make([]models.Turn, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.IsPending() {
			turns = append(turns, e.Turn)
		}
	}
	return turns
}

// Pending returns the ids of exchanges still awaiting an answer.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, e := range c.entries {
		if e.IsPending() {
			ids = append(ids, e.ExchangeID)
		}
	}
	return ids
}

// ShowsWelcome reports whether the welcome placeholder should be displayed.
func (c *Coordinator) ShowsWelcome() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries) == 0
}

// Welcome returns the placeholder shown on an empty conversation.
func (c *Coordinator) Welcome() models.WelcomeMessage {
	return models.Welcome()
}

// Wait blocks until every submitted exchange has resolved.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) publishLocked(exchangeID string) {
	c.bus.Publish(events.Event{
		Kind:    events.ConversationChanged,
		Subject: exchangeID,
		Data:    append([]models.Entry(nil), c.entries...),
	})
}

func (c *Coordinator) notify(msg string, sev models.Severity) {
	if c.notifier != nil {
		c.notifier.Notify(msg, sev)
	}
}
