// Package notify holds the single transient status banner.
package notify

import (
	"sync"
	"time"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/events"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 3 * time.Second

// Notifier is what the coordinators need from the sink.
type Notifier interface {
	Notify(message string, severity models.Severity)
}

// Sink keeps at most one notification. A new one replaces the current one.
type Sink struct {
	duration time.Duration
	bus      *events.Bus
	log      *logger.Logger

	mu      sync.Mutex
	current *models.Notification
	nextID  uint64
	timer   *time.Timer
	closed  bool
}

// NewSink creates a sink whose notifications dismiss after duration.
func NewSink(duration time.Duration, bus *events.Bus, log *logger.Logger) *Sink {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Sink{
		duration: duration,
		bus:      bus,
		log:      logger.OrNop(log).With("component", "notify"),
	}
}

// Notify shows message, replacing whatever is displayed.
func (s *Sink) Notify(message string, severity models.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.nextID++
	now := time.Now()
	n := &models.Notification{
		ID:        s.nextID,
		Message:   message,
		Severity:  severity,
		ShownAt:   now,
		ExpiresAt: now.Add(s.duration),
	}
	s.current = n

	id := n.ID
	s.timer = time.AfterFunc(s.duration, func() { s.expire(id) })

	if severity == models.SeverityError {
		s.log.Warn("notification", "message", message)
	} else {
		s.log.Debug("notification", "message", message)
	}
	s.publishLocked()
}

// Current returns the visible notification, if any.
func (s *Sink) Current() (models.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.Notification{}, false
	}
	return *s.current, true
}

// Dismiss hides the current notification immediately.
func (s *Sink) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.current = nil
	s.publishLocked()
}

// Close stops the pending dismissal timer and ignores later notifications.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// expire hides notification id unless it was already replaced.
func (s *Sink) expire(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return
	}
	s.current = nil
	s.timer = nil
	s.publishLocked()
}

func (s *Sink) publishLocked() {
	ev := events.Event{Kind: events.NotificationChanged}
	if s.current != nil {
		ev.Data = *s.current
	}
	s.bus.Publish(ev)
}
