// Package upload drives the lifecycle of a single manual upload:
// idle -> uploading -> succeeded|failed -> idle.
package upload

import (
	"context"
	"errors"
	"io"
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
	msgUploaded     = "Manual uploaded successfully"
	msgUploadFailed = "Upload failed"
	msgNotPDF       = "Please upload a PDF file"
	msgBusy         = "An upload is already in progress"
)

var (
	// ErrBusy is returned when an upload is requested while one is running.
	ErrBusy = apperr.NewInvalidInputError(msgBusy)
	// ErrUnsupportedType is returned for files the backend would not accept.
	ErrUnsupportedType = apperr.NewInvalidInputError(msgNotPDF)
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("upload coordinator closed")
)

// Backend sends the file to the service.
type Backend interface {
	UploadManual(ctx context.Context, filename string, r io.Reader) (models.UploadResponse, error)
}

// Registry is told about a successful upload.
type Registry interface {
	Select(name string)
	Refresh(ctx context.Context) ([]models.Document, error)
}

// Settings tune the cosmetic progress and the terminal display.
type Settings struct {
	AcceptedMediaTypes []string
	ProgressInterval   time.Duration
	ProgressStep       int
	ProgressCap        int
	DisplayDelay       time.Duration
}

// DefaultSettings returns a 200ms/10% ticker capped at 90% and a 2s display delay.
func DefaultSettings() Settings {
	return Settings{
		AcceptedMediaTypes: []string{"application/pdf"},
		ProgressInterval:   200 * time.Millisecond,
		ProgressStep:       10,
		ProgressCap:        90,
		DisplayDelay:       2 * time.Second,
	}
}

// session is the one live upload. stop ends its ticker; reset returns it to idle.
type session struct {
	snap    models.UploadSnapshot
	stop    chan struct{}
	stopped bool
	reset   *time.Timer
}

func (s *session) stopTicker() {
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// Coordinator runs at most one upload at a time.
type Coordinator struct {
	backend  Backend
	registry Registry
	notifier notify.Notifier
	bus      *events.Bus
	log      *logger.Logger
	settings Settings

	mu      sync.Mutex
	current *session
	closed  bool
	wg      sync.WaitGroup
}

// NewCoordinator creates an idle coordinator. Zero settings fall back to
// DefaultSettings field by field.
func NewCoordinator(backend Backend, registry Registry, notifier notify.Notifier, bus *events.Bus, log *logger.Logger, settings Settings) *Coordinator {
	def := DefaultSettings()
	if len(settings.AcceptedMediaTypes) == 0 {
		settings.AcceptedMediaTypes = def.AcceptedMediaTypes
	}
	if settings.ProgressInterval <= 0 {
		settings.ProgressInterval = def.ProgressInterval
	}
	if settings.ProgressStep <= 0 {
		settings.ProgressStep = def.ProgressStep
	}
	if settings.ProgressCap <= 0 || settings.ProgressCap >= 100 {
		settings.ProgressCap = def.ProgressCap
	}
	if settings.DisplayDelay < 0 {
		settings.DisplayDelay = 0
	}
	return &Coordinator{
		backend:  backend,
		registry: registry,
		notifier: notifier,
		bus:      bus,
		log:      logger.OrNop(log).With("component", "upload"),
		settings: settings,
	}
}

// Upload validates f and starts sending it. It returns the session id at
// once; the outcome is published as upload.changed events.
func (c *Coordinator) Upload(ctx context.Context, f File) (string, error) {
	if !accepted(f.MediaType, c.settings.AcceptedMediaTypes) {
		c.log.Info("rejected file", "file", f.Name, "mediaType", f.MediaType)
		c.notify(msgNotPDF, models.SeverityError)
		return "", ErrUnsupportedType
	}
	if f.Open == nil {
		c.notify(msgUploadFailed, models.SeverityError)
		return "", apperr.NewInvalidInputError("file has no content")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if c.current != nil && c.current.snap.Status == models.UploadUploading {
		c.mu.Unlock()
		c.notify(msgBusy, models.SeverityError)
		return "", ErrBusy
	}

	rc, err := f.Open()
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("cannot open file", "file", f.Name, "error", err)
		c.notify(msgUploadFailed, models.SeverityError)
		return "", apperr.NewInvalidInputError(err.Error())
	}

	if c.current != nil && c.current.reset != nil {
		c.current.reset.Stop()
	}
	s := &session{
		snap: models.UploadSnapshot{
			ID:        uuid.New().String(),
			FileName:  f.Name,
			MediaType: f.MediaType,
			Status:    models.UploadUploading,
			Progress:  0,
			StartedAt: time.Now(),
		},
		stop: make(chan struct{}),
	}
	c.current = s
	c.publishLocked()

	c.wg.Add(2)
	go c.tick(s.snap.ID, s.stop)
	go c.transfer(ctx, s.snap.ID, f.Name, rc)
	c.mu.Unlock()

	c.log.Info("upload started", "session", s.snap.ID, "file", f.Name, "size", f.Size)
	return s.snap.ID, nil
}

// Current returns a copy of the upload state; idle when nothing is shown.
func (c *Coordinator) Current() models.UploadSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Busy reports whether a transfer is in flight.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.snap.Status == models.UploadUploading
}

// Wait blocks until every started transfer has resolved.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close stops the ticker and the display timer. Transfers still running
// resolve silently.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.current != nil {
		c.current.stopTicker()
		if c.current.reset != nil {
			c.current.reset.Stop()
		}
	}
}

func (c *Coordinator) tick(id string, stop <-chan struct{}) {
	defer c.wg.Done()
	t := time.NewTicker(c.settings.ProgressInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.advance(id)
		}
	}
}

// advance applies one cosmetic step. Ticks for anything other than the live
// uploading session are dropped.
func (c *Coordinator) advance(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.current
	if c.closed || s == nil || s.snap.ID != id || s.snap.Status != models.UploadUploading {
		return
	}
	next := s.snap.Progress + c.settings.ProgressStep
	if next > c.settings.ProgressCap {
		next = c.settings.ProgressCap
	}
	if next == s.snap.Progress {
		return
	}
	s.snap.Progress = next
	c.publishLocked()
}

func (c *Coordinator) transfer(ctx context.Context, id, name string, rc io.ReadCloser) {
	defer c.wg.Done()
	defer rc.Close()

	start := time.Now()
	resp, err := c.backend.UploadManual(ctx, name, rc)
	if err != nil {
		c.markError(id, err)
		return
	}

	docName := resp.Filename
	if docName == "" {
		docName = name
	}
	if !c.markComplete(id, docName) {
		return
	}
	c.log.Info("upload complete", "session", id, "manual", docName, "duration", time.Since(start))

	c.notify(msgUploaded, models.SeveritySuccess)
	if c.registry != nil {
		c.registry.Select(docName)
		if _, err := c.registry.Refresh(ctx); err != nil {
			c.log.Warn("refresh after upload failed", "error", err)
		}
	}
}

// markComplete moves session id to succeeded. It reports false when the
// coordinator was closed in the meantime.
func (c *Coordinator) markComplete(id, docName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.current
	if c.closed || s == nil || s.snap.ID != id {
		return false
	}
	s.stopTicker()
	now := time.Now()
	s.snap.Status = models.UploadSucceeded
	s.snap.Progress = 100
	s.snap.Document = docName
	s.snap.CompletedAt = &now
	c.publishLocked()
	s.reset = time.AfterFunc(c.settings.DisplayDelay, func() { c.resetToIdle(id) })
	return true
}

func (c *Coordinator) markError(id string, err error) {
	msg := apperr.Message(err, msgUploadFailed)

	c.mu.Lock()
	s := c.current
	if c.closed || s == nil || s.snap.ID != id {
		c.mu.Unlock()
		return
	}
	s.stopTicker()
	now := time.Now()
	s.snap.Status = models.UploadFailed
	s.snap.Progress = 0
	s.snap.Error = msg
	s.snap.CompletedAt = &now
	c.publishLocked()
	s.reset = time.AfterFunc(c.settings.DisplayDelay, func() { c.resetToIdle(id) })
	c.mu.Unlock()

	c.log.Warn("upload failed", "session", id, "error", err)
	c.notify(msg, models.SeverityError)
}

func (c *Coordinator) resetToIdle(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.current
	if c.closed || s == nil || s.snap.ID != id || !s.snap.Status.Terminal() {
		return
	}
	c.current = nil
	c.publishLocked()
}

func (c *Coordinator) snapshotLocked() models.UploadSnapshot {
	if c.current == nil {
		return models.UploadSnapshot{Status: models.UploadIdle}
	}
	snap := c.current.snap
	if snap.CompletedAt != nil {
		t := *snap.CompletedAt
		snap.CompletedAt = &t
	}
	return snap
}

func (c *Coordinator) publishLocked() {
	snap := c.snapshotLocked()
	c.bus.Publish(events.Event{Kind: events.UploadChanged, Subject: snap.ID, Data: snap})
}

func (c *Coordinator) notify(msg string, sev models.Severity) {
	if c.notifier != nil {
		c.notifier.Notify(msg, sev)
	}
}
