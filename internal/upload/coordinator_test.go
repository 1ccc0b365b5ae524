package upload

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/apperr"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/events"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/registry"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fixture struct {
	backend  *testutil.FakeBackend
	notes    *testutil.RecordingNotifier
	registry *registry.Registry
	coord    *Coordinator
}

func newFixture(t *testing.T, bus *events.Bus, settings Settings) *fixture {
	t.Helper()
	backend := testutil.NewFakeBackend()
	notes := testutil.NewRecordingNotifier()
	reg := registry.New(backend, notes, nil, nil)
	coord := NewCoordinator(backend, reg, notes, bus, nil, settings)
	t.Cleanup(func() {
		coord.Wait()
		coord.Close()
	})
	return &fixture{backend: backend, notes: notes, registry: reg, coord: coord}
}

func fastSettings() Settings {
	s := DefaultSettings()
	s.ProgressInterval = 2 * time.Millisecond
	s.DisplayDelay = 20 * time.Millisecond
	return s
}

type snapshotLog struct {
	mu    sync.Mutex
	snaps []models.UploadSnapshot
}

func (l *snapshotLog) handle(ev events.Event) {
	if ev.Kind != events.UploadChanged {
		return
	}
	l.mu.Lock()
	l.snaps = append(l.snaps, ev.Data.(models.UploadSnapshot))
	l.mu.Unlock()
}

func (l *snapshotLog) all() []models.UploadSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.UploadSnapshot{}, l.snaps...)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	f := newFixture(t, nil, fastSettings())

	_, err := f.coord.Upload(context.Background(), FileFromBytes("notes.txt", []byte("change the oil every 5000 miles")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.True(t, apperr.IsInvalidInput(err))

	assert.Equal(t, []testutil.Notice{{Message: "Please upload a PDF file", Severity: models.SeverityError}}, f.notes.Notices())
	assert.Zero(t, f.backend.CallCount("UploadManual"))
	assert.Equal(t, models.UploadIdle, f.coord.Current().Status)
}

func TestUpload_SuccessSelectsAndRefreshes(t *testing.T) {
	f := newFixture(t, nil, fastSettings())

	id, err := f.coord.Upload(context.Background(), FileFromBytes("manual.pdf", pdfBytes))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	f.coord.Wait()

	snap := f.coord.Current()
	if snap.Status != models.UploadIdle {
		assert.Equal(t, models.UploadSucceeded, snap.Status)
		assert.Equal(t, 100, snap.Progress)
		assert.Equal(t, "manual.pdf", snap.Document)
	}

	name, ok := f.registry.Selected()
	assert.True(t, ok)
	assert.Equal(t, "manual.pdf", name)
	assert.True(t, f.registry.Contains("manual.pdf"))

	calls := f.backend.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "UploadManual", calls[0].Method)
	assert.Equal(t, pdfBytes, calls[0].Data)

	last, _ := f.notes.Last()
	assert.Equal(t, testutil.Notice{Message: "Manual uploaded successfully", Severity: models.SeveritySuccess}, last)

	assert.Eventually(t, func() bool {
		return f.coord.Current().Status == models.UploadIdle
	}, time.Second, 5*time.Millisecond)
}

func TestUpload_UsesServerAssignedName(t *testing.T) {
	f := newFixture(t, nil, fastSettings())
	f.backend.UploadFunc = func(_ context.Context, _ string, _ []byte) (models.UploadResponse, error) {
		f.backend.SetManuals("manual_1.pdf")
		return models.UploadResponse{Filename: "manual_1.pdf"}, nil
	}

	_, err := f.coord.Upload(context.Background(), FileFromBytes("manual.pdf", pdfBytes))
	require.NoError(t, err)
	f.coord.Wait()

	name, _ := f.registry.Selected()
	assert.Equal(t, "manual_1.pdf", name)
	assert.False(t, f.registry.Selection().Stale)
}

func TestUpload_FailureResetsProgress(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	var log snapshotLog
	bus.Subscribe(log.handle)

	f := newFixture(t, bus, fastSettings())
	f.registry.Select("previous.pdf")
	f.backend.UploadFunc = func(context.Context, string, []byte) (models.UploadResponse, error) {
		return models.UploadResponse{}, apperr.NewRejectedError(http.StatusBadRequest, "Only PDF files are supported")
	}

	_, err := f.coord.Upload(context.Background(), FileFromBytes("manual.pdf", pdfBytes))
	require.NoError(t, err)
	f.coord.Wait()
	bus.Sync()

	var failed *models.UploadSnapshot
	for _, s := range log.all() {
		if s.Status == models.UploadFailed {
			s := s
			failed = &s
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, 0, failed.Progress)
	assert.Equal(t, "Only PDF files are supported", failed.Error)
	assert.Equal(t, "Upload failed", failed.StatusText())

	assert.Equal(t, []testutil.Notice{{Message: "Only PDF files are supported", Severity: models.SeverityError}}, f.notes.Notices())
	name, _ := f.registry.Selected()
	assert.Equal(t, "previous.pdf", name)
	assert.Zero(t, f.backend.CallCount("ListManuals"))

	assert.Eventually(t, func() bool {
		return f.coord.Current().Status == models.UploadIdle
	}, time.Second, 5*time.Millisecond)
}

func TestUpload_FailureWithoutDetailUsesFallback(t *testing.T) {
	f := newFixture(t, nil, fastSettings())
	f.backend.UploadFunc = func(context.Context, string, []byte) (models.UploadResponse, error) {
		return models.UploadResponse{}, apperr.NewRejectedError(http.StatusInternalServerError, "")
	}

	_, err := f.coord.Upload(context.Background(), FileFromBytes("manual.pdf", pdfBytes))
	require.NoError(t, err)
	f.coord.Wait()

	last, _ := f.notes.Last()
	assert.Equal(t, "Upload failed", last.Message)
}

func TestUpload_RejectsWhileBusy(t *testing.T) {
	f := newFixture(t, nil, fastSettings())
	gate := testutil.NewGate()
	defer gate.Release()
	f.backend.UploadFunc = func(ctx context.Context, name string, _ []byte) (models.UploadResponse, error) {
		if err := gate.Wait(ctx); err != nil {
			return models.UploadResponse{}, apperr.NewUnreachableError(err)
		}
		return models.UploadResponse{Filename: name}, nil
	}
	ctx := context.Background()

	first, err := f.coord.Upload(ctx, FileFromBytes("a.pdf", pdfBytes))
	require.NoError(t, err)
	assert.True(t, f.coord.Busy())

	_, err = f.coord.Upload(ctx, FileFromBytes("b.pdf", pdfBytes))
	assert.ErrorIs(t, err, ErrBusy)
	last, _ := f.notes.Last()
	assert.Equal(t, testutil.Notice{Message: "An upload is already in progress", Severity: models.SeverityError}, last)
	assert.Equal(t, first, f.coord.Current().ID)

	gate.Release()
	f.coord.Wait()
	assert.Equal(t, 1, f.backend.CallCount("UploadManual"))
}

func TestUpload_ProgressIsMonotonicAndCapped(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	var log snapshotLog
	bus.Subscribe(log.handle)

	f := newFixture(t, bus, fastSettings())
	gate := testutil.NewGate()
	defer gate.Release()
	f.backend.UploadFunc = func(ctx context.Context, name string, _ []byte) (models.UploadResponse, error) {
		_ = gate.Wait(ctx)
		return models.UploadResponse{Filename: name}, nil
	}

	_, err := f.coord.Upload(context.Background(), FileFromBytes("manual.pdf", pdfBytes))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return f.coord.Current().Progress == 90
	}, time.Second, 2*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 90, f.coord.Current().Progress)

	gate.Release()
	f.coord.Wait()
	bus.Sync()

	snaps := log.all()
	require.NotEmpty(t, snaps)
	assert.Equal(t, models.UploadUploading, snaps[0].Status)
	assert.Equal(t, 0, snaps[0].Progress)

	prev := 0
	terminal := -1
	for i, s := range snaps {
		if s.Status != models.UploadUploading {
			terminal = i
			break
		}
		assert.GreaterOrEqual(t, s.Progress, prev)
		assert.LessOrEqual(t, s.Progress, 90)
		prev = s.Progress
	}
	require.NotEqual(t, -1, terminal)
	assert.Equal(t, models.UploadSucceeded, snaps[terminal].Status)
	assert.Equal(t, 100, snaps[terminal].Progress)

	// no tick lands after the transfer resolved
	for _, s := range snaps[terminal:] {
		assert.NotEqual(t, models.UploadUploading, s.Status)
	}
}

func TestUpload_TerminalStateIsReplaced(t *testing.T) {
	s := fastSettings()
	s.DisplayDelay = time.Hour
	f := newFixture(t, nil, s)
	ctx := context.Background()

	_, err := f.coord.Upload(ctx, FileFromBytes("a.pdf", pdfBytes))
	require.NoError(t, err)
	f.coord.Wait()
	require.Equal(t, models.UploadSucceeded, f.coord.Current().Status)

	second, err := f.coord.Upload(ctx, FileFromBytes("b.pdf", pdfBytes))
	require.NoError(t, err)
	f.coord.Wait()
	snap := f.coord.Current()
	assert.Equal(t, second, snap.ID)
	assert.Equal(t, "b.pdf", snap.Document)
}

func TestUpload_AfterClose(t *testing.T) {
	f := newFixture(t, nil, fastSettings())
	f.coord.Close()

	_, err := f.coord.Upload(context.Background(), FileFromBytes("a.pdf", pdfBytes))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owner manual.pdf")
	require.NoError(t, os.WriteFile(path, pdfBytes, 0644))

	f, err := FileFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "owner manual.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.MediaType)
	assert.Equal(t, int64(len(pdfBytes)), f.Size)

	rc, err := f.Open()
	require.NoError(t, err)
	rc.Close()

	// the extension does not decide the type
	fake := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(fake, []byte("just text"), 0644))
	f, err = FileFromPath(fake)
	require.NoError(t, err)
	assert.False(t, accepted(f.MediaType, DefaultSettings().AcceptedMediaTypes))

	_, err = FileFromPath(dir)
	assert.Error(t, err)
	_, err = FileFromPath(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestAccepted(t *testing.T) {
	allowed := []string{"application/pdf"}
	tests := []struct {
		mediaType string
		want      bool
	}{
		{"application/pdf", true},
		{"APPLICATION/PDF", true},
		{"application/pdf; charset=binary", true},
		{"text/plain; charset=utf-8", false},
		{"image/png", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.want, accepted(tt.mediaType, allowed))
		})
	}
}
