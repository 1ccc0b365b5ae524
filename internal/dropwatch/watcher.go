// Package dropwatch uploads files dropped into a watched directory.
package dropwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/upload"
)

// Uploader starts an upload.
type Uploader interface {
	Upload(ctx context.Context, f upload.File) (string, error)
}

// Watcher hands every file that settles in its directory to the uploader.
// Validation happens in the uploader, so a dropped non-PDF produces the same
// notification as any other rejected file.
type Watcher struct {
	dir      string
	debounce time.Duration
	uploader Uploader
	log      *logger.Logger

	mu     sync.Mutex
	timers map[string]*pending
	wg     sync.WaitGroup
}

// New creates a watcher for dir. Events for a path are coalesced until it
// has been quiet for debounce.
func New(dir string, debounce time.Duration, uploader Uploader, log *logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		uploader: uploader,
		log:      logger.OrNop(log).With("component", "dropwatch", "dir", dir),
		timers:   make(map[string]*pending),
	}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches until ctx is done. The directory is created if missing.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating drop directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching drop folder")

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if ignored(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// pending is a debounced submission for one path.
type pending struct {
	t *time.Timer
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.timers[path]; ok && p.t.Stop() {
		p.t.Reset(w.debounce)
		return
	}
	p := &pending{}
	w.timers[path] = p
	w.wg.Add(1)
	p.t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == p {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		w.submit(ctx, path)
	})
}

func (w *Watcher) submit(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	f, err := upload.FileFromPath(path)
	if err != nil {
		w.log.Debug("skipping", "path", path, "error", err)
		return
	}
	if _, err := w.uploader.Upload(ctx, f); err != nil {
		w.log.Warn("drop not uploaded", "file", f.Name, "error", err)
		return
	}
	w.log.Info("drop uploading", "file", f.Name)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	for path, p := range w.timers {
		if p.t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// ignored filters editor and download temp files.
func ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return true
	}
	return false
}
