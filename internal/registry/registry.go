// Package registry keeps the list of known manuals and the one selected for
// questions.
package registry

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/apperr"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/events"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/notify"
)

const (
	msgDeleted     = "Manual deleted"
	msgDeleteError = "Error deleting manual"
)

// ErrNotConfirmed is returned when a delete was not confirmed by the user.
var ErrNotConfirmed = apperr.NewInvalidInputError("delete not confirmed")

// ConfirmFunc asks the user whether name may be deleted.
type ConfirmFunc func(name string) bool

// Backend is the part of the service the registry talks to.
type Backend interface {
	ListManuals(ctx context.Context) ([]string, error)
	DeleteManual(ctx context.Context, name string) error
}

// Registry owns the document list and the selection. The selection is a
// reference by name and may point at a document that is no longer listed.
type Registry struct {
	backend  Backend
	notifier notify.Notifier
	bus      *events.Bus
	log      *logger.Logger

	mu        sync.RWMutex
	documents []models.Document
	selected  string
	hasSel    bool
}

// New creates an empty registry.
func New(backend Backend, notifier notify.Notifier, bus *events.Bus, log *logger.Logger) *Registry {
	return &Registry{
		backend:   backend,
		notifier:  notifier,
		bus:       bus,
		log:       logger.OrNop(log).With("component", "registry"),
		documents: []models.Document{},
	}
}

// Refresh replaces the document list with the server's. The selection is
// left alone even when it is missing from the new list.
func (r *Registry) Refresh(ctx context.Context) ([]models.Document, error) {
	names, err := r.backend.ListManuals(ctx)
	if err != nil {
		r.log.Warn("failed to load manuals", "error", err)
		return nil, err
	}

	docs := make([]models.Document, 0, len(names))
	for _, n := range names {
		docs = append(docs, models.Document{Name: n})
	}

	r.mu.Lock()
	r.documents = docs
	r.bus.Publish(events.Event{Kind: events.DocumentsChanged, Data: cloneDocs(docs)})
	r.bus.Publish(events.Event{Kind: events.SelectionChanged, Data: r.selectionLocked()})
	r.mu.Unlock()

	r.log.Debug("manuals refreshed", "count", len(docs))
	return cloneDocs(docs), nil
}

// Select sets the selection without checking the list, so a manual that was
// just uploaded can be selected before the next refresh.
func (r *Registry) Select(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = name
	r.hasSel = true
	r.bus.Publish(events.Event{Kind: events.SelectionChanged, Subject: name, Data: r.selectionLocked()})
}

// ClearSelection returns to general mode.
func (r *Registry) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearSelectionLocked()
}

// Delete removes name on the server after confirm approves it. On success
// the selection is cleared if it pointed at name and the list is refreshed.
// On failure nothing local changes and one error notification is raised.
func (r *Registry) Delete(ctx context.Context, name string, confirm ConfirmFunc) error {
	if strings.TrimSpace(name) == "" {
		return apperr.NewInvalidInputError("manual name is required")
	}
	if confirm == nil || !confirm(name) {
		return ErrNotConfirmed
	}

	if err := r.backend.DeleteManual(ctx, name); err != nil {
		r.log.Warn("delete failed", "manual", name, "error", err)
		r.notify(msgDeleteError, models.SeverityError)
		return err
	}

	r.log.Info("manual deleted", "manual", name)
	r.notify(msgDeleted, models.SeveritySuccess)

	r.mu.Lock()
	if r.hasSel && r.selected == name {
		r.clearSelectionLocked()
	}
	r.mu.Unlock()

	if _, err := r.Refresh(ctx); err != nil {
		r.log.Warn("refresh after delete failed", "error", err)
	}
	return nil
}

// Selected returns the raw selected name.
func (r *Registry) Selected() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected, r.hasSel
}

// Selection returns the selection reconciled against the current list.
func (r *Registry) Selection() models.Selection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selectionLocked()
}

// Documents returns a copy of the known documents in server order.
func (r *Registry) Documents() []models.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneDocs(r.documents)
}

// Contains reports whether name is in the current list.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.containsLocked(name)
}

func (r *Registry) clearSelectionLocked() {
	if !r.hasSel {
		return
	}
	r.selected = ""
	r.hasSel = false
	r.bus.Publish(events.Event{Kind: events.SelectionChanged, Data: r.selectionLocked()})
}

func (r *Registry) selectionLocked() models.Selection {
	if !r.hasSel {
		return models.Selection{}
	}
	return models.Selection{
		Name:  r.selected,
		Set:   true,
		Stale: !r.containsLocked(r.selected),
	}
}

func (r *Registry) containsLocked(name string) bool {
	for _, d := range r.documents {
		if d.Name == name {
			return true
		}
	}
	return false
}

func (r *Registry) notify(msg string, sev models.Severity) {
	if r.notifier != nil {
		r.notifier.Notify(msg, sev)
	}
}

func cloneDocs(docs []models.Document) []models.Document {
	out := make([]models.Document, len(docs))
	copy(out, docs)
	return out
}

// IsNotConfirmed reports whether err is a refused confirmation.
func IsNotConfirmed(err error) bool {
	return errors.Is(err, ErrNotConfirmed)
}
