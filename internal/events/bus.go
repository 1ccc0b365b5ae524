// Package events delivers state-change notifications from the coordinators
// to renderers on a single goroutine, in the order they were published.
package events

import (
	"sync"
	"time"
)

// Kind names what changed.
type Kind string

const (
	DocumentsChanged    Kind = "documents.changed"
	SelectionChanged    Kind = "selection.changed"
	UploadChanged       Kind = "upload.changed"
	ConversationChanged Kind = "conversation.changed"
	NotificationChanged Kind = "notification.changed"

	barrier Kind = "barrier"
)

// Event is a published state change. Data holds a snapshot of the new
// state (models.UploadSnapshot, models.Selection, []models.Document, ...).
type Event struct {
	Seq     uint64
	Kind    Kind
	Subject string // exchange id, session id or document name when relevant
	Data    any
	At      time.Time

	done chan struct{}
}

// Handler receives events on the dispatcher goroutine.
type Handler func(Event)

// Bus is an ordered, non-blocking fan-out queue. A nil *Bus accepts and
// drops everything.
type Bus struct {
	mu     sync.Mutex
	queue  []Event
	subs   map[int]Handler
	nextID int
	seq    uint64
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewBus creates a bus and starts its dispatcher.
func NewBus() *Bus {
	b := &Bus{
		subs: make(map[int]Handler),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Publish enqueues an event. It never blocks on subscribers.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.seq++
	ev.Seq = b.seq
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	if b == nil || h == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Sync blocks until every event published before the call has been
// delivered to subscribers.
func (b *Bus) Sync() {
	if b == nil {
		return
	}
	done := make(chan struct{})
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, Event{Kind: barrier, done: done})
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	select {
	case <-done:
	case <-b.done:
	}
}

// Close stops the dispatcher. Events still queued are dropped.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.done)
}

func (b *Bus) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case <-b.wake:
		}

		for {
			b.mu.Lock()
			if len(b.queue) == 0 || b.closed {
				b.mu.Unlock()
				break
			}
			batch := b.queue
			b.queue = nil
			handlers := make([]Handler, 0, len(b.subs))
			for id := 0; id < b.nextID; id++ {
				if h, ok := b.subs[id]; ok {
					handlers = append(handlers, h)
				}
			}
			b.mu.Unlock()

			for _, ev := range batch {
				if ev.Kind == barrier {
					close(ev.done)
					continue
				}
				for _, h := range handlers {
					h(ev)
				}
			}
		}
	}
}
