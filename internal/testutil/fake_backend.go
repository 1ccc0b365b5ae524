// fake_backend.go - In-memory stand-in for the question-answering service
package testutil

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/apperr"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

// Call records one request made against FakeBackend.
type Call struct {
	Method   string // Health, ListManuals, UploadManual, DeleteManual, Ask
	Name     string // manual name or uploaded file name
	Data     []byte // uploaded bytes
	Question string
	Manual   *string // manual_name sent with Ask
}

// FakeBackend implements the backend interfaces of the registry, upload and
// conversation packages. The *Func hooks replace the default behaviour.
type FakeBackend struct {
	mu      sync.Mutex
	manuals []string
	calls   []Call

	HealthFunc func(ctx context.Context) (models.HealthResponse, error)
	ListFunc   func(ctx context.Context) ([]string, error)
	DeleteFunc func(ctx context.Context, name string) error
	UploadFunc func(ctx context.Context, filename string, data []byte) (models.UploadResponse, error)
	AskFunc    func(ctx context.Context, req models.AskRequest) (models.AskResponse, error)
}

// NewFakeBackend creates a fake that already holds manuals.
func NewFakeBackend(manuals ...string) *FakeBackend {
	return &FakeBackend{manuals: append([]string{}, manuals...)}
}

// Manuals returns the names the fake currently stores.
func (f *FakeBackend) Manuals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.manuals...)
}

// SetManuals replaces the stored names, as if another client changed them.
func (f *FakeBackend) SetManuals(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manuals = append([]string{}, names...)
}

// Calls returns every recorded call in order.
func (f *FakeBackend) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call{}, f.calls...)
}

// CallCount returns how many times method was called.
func (f *FakeBackend) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *FakeBackend) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *FakeBackend) Health(ctx context.Context) (models.HealthResponse, error) {
	f.record(Call{Method: "Health"})
	if f.HealthFunc != nil {
		return f.HealthFunc(ctx)
	}
	return models.HealthResponse{Status: "healthy", APIKeyConfigured: true}, nil
}

func (f *FakeBackend) ListManuals(ctx context.Context) ([]string, error) {
	f.record(Call{Method: "ListManuals"})
	if f.ListFunc != nil {
		return f.ListFunc(ctx)
	}
	return f.Manuals(), nil
}

func (f *FakeBackend) DeleteManual(ctx context.Context, name string) error {
	f.record(Call{Method: "DeleteManual", Name: name})
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.manuals {
		if m == name {
			f.manuals = append(f.manuals[:i], f.manuals[i+1:]...)
			return nil
		}
	}
	return apperr.NewRejectedError(http.StatusNotFound, "Manual not found")
}

func (f *FakeBackend) UploadManual(ctx context.Context, filename string, r io.Reader) (models.UploadResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.UploadResponse{}, apperr.NewUnreachableError(err)
	}
	f.record(Call{Method: "UploadManual", Name: filename, Data: data})
	if f.UploadFunc != nil {
		return f.UploadFunc(ctx, filename, data)
	}

	f.mu.Lock()
	f.manuals = append(f.manuals, filename)
	f.mu.Unlock()
	return models.UploadResponse{Filename: filename, Message: "Manual uploaded successfully"}, nil
}

func (f *FakeBackend) Ask(ctx context.Context, req models.AskRequest) (models.AskResponse, error) {
	var manual *string
	if req.ManualName != nil {
		name := *req.ManualName
		manual = &name
	}
	f.record(Call{Method: "Ask", Question: req.Question, Manual: manual})
	if f.AskFunc != nil {
		return f.AskFunc(ctx, req)
	}
	return models.AskResponse{Answer: "answer: " + req.Question}, nil
}

// Gate blocks fake calls until the test releases them, which lets a test
// decide the order in which concurrent requests resolve.
type Gate struct {
	once sync.Once
	ch   chan struct{}
}

// NewGate creates a closed-until-released gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Release lets every waiter through. Safe to call more than once.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.ch) })
}

// Wait blocks until Release or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
