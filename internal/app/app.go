// Package app wires the client: transport, registry, coordinators, the
// notification sink and the event bus.
package app

import (
	"context"
	"fmt"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/apperr"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/config"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/conversation"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/dropwatch"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/events"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/notify"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/registry"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/transcript"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/transport"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/upload"
)

const (
	msgNoAPIKey    = "OpenAI API key not configured"
	msgUnreachable = "Cannot connect to server"
	msgUnreadable  = "Cannot read file"
)

// App is one running client.
type App struct {
	Config       *config.AppConfig
	Log          *logger.Logger
	Bus          *events.Bus
	Notifier     *notify.Sink
	Client       *transport.Client
	Registry     *registry.Registry
	Uploads      *upload.Coordinator
	Conversation *conversation.Coordinator
}

// New builds the client from cfg. A nil log discards output.
func New(cfg *config.AppConfig, log *logger.Logger) *App {
	log = logger.OrNop(log)
	bus := events.NewBus()
	sink := notify.NewSink(cfg.Notifications.Duration, bus, log)
	client := transport.New(cfg.API.BaseURL, cfg.API.Timeout, log)
	reg := registry.New(client, sink, bus, log)

	return &App{
		Config:   cfg,
		Log:      log,
		Bus:      bus,
		Notifier: sink,
		Client:   client,
		Registry: reg,
		Uploads: upload.NewCoordinator(client, reg, sink, bus, log, upload.Settings{
			AcceptedMediaTypes: cfg.Upload.AcceptedMediaTypes,
			ProgressInterval:   cfg.Upload.ProgressInterval,
			ProgressStep:       cfg.Upload.ProgressStep,
			ProgressCap:        cfg.Upload.ProgressCap,
			DisplayDelay:       cfg.Upload.DisplayDelay,
		}),
		Conversation: conversation.NewCoordinator(client, reg, sink, bus, log),
	}
}

// Start checks the service and loads the manual list. A failed health check
// is surfaced as a notification and returned; a failed list load is only
// logged.
func (a *App) Start(ctx context.Context) (models.HealthResponse, error) {
	health, err := a.Client.Health(ctx)
	switch {
	case err != nil:
		a.Log.Warn("health check failed", "url", a.Client.BaseURL(), "error", err)
		a.Notifier.Notify(msgUnreachable, models.SeverityError)
	case !health.APIKeyConfigured:
		a.Notifier.Notify(msgNoAPIKey, models.SeverityError)
	}

	if _, lerr := a.Registry.Refresh(ctx); lerr != nil {
		a.Log.Error("error loading manuals", "error", lerr)
	}
	return health, err
}

// UploadPath uploads the file at path.
func (a *App) UploadPath(ctx context.Context, path string) (string, error) {
	f, err := upload.FileFromPath(path)
	if err != nil {
		a.Log.Warn("cannot read upload", "path", path, "error", err)
		a.Notifier.Notify(msgUnreadable, models.SeverityError)
		return "", apperr.NewInvalidInputError(fmt.Sprintf("%s: %v", msgUnreadable, err))
	}
	return a.Uploads.Upload(ctx, f)
}

// DropWatcher returns a watcher that uploads files dropped into dir, or into
// the configured drop folder when dir is empty.
func (a *App) DropWatcher(dir string) *dropwatch.Watcher {
	if dir == "" {
		dir = a.Config.Watch.Directory
	}
	return dropwatch.New(dir, a.Config.Watch.Debounce, a.Uploads, a.Log)
}

// RestoreTranscript loads the saved conversation and selection, if enabled.
func (a *App) RestoreTranscript() error {
	if !a.Config.Transcript.Enabled || a.Config.Transcript.Path == "" {
		return nil
	}
	snap, err := transcript.Load(a.Config.Transcript.Path)
	if err != nil {
		return err
	}
	if snap.Manual != "" {
		a.Registry.Select(snap.Manual)
	}
	return a.Conversation.Restore(snap.Turns)
}

// SaveTranscript stores the settled turns and the selection, if enabled.
func (a *App) SaveTranscript() error {
	if !a.Config.Transcript.Enabled || a.Config.Transcript.Path == "" {
		return nil
	}
	manual, _ := a.Registry.Selected()
	return transcript.Save(a.Config.Transcript.Path, transcript.Snapshot{
		Manual: manual,
		Turns:  a.Conversation.Turns(),
	})
}

// Wait blocks until in-flight uploads and questions have resolved.
func (a *App) Wait() {
	a.Uploads.Wait()
	a.Conversation.Wait()
	a.Bus.Sync()
}

// Close stops timers and the event bus. Call Wait first to let in-flight
// work finish.
func (a *App) Close() {
	a.Uploads.Close()
	a.Notifier.Close()
	a.Bus.Close()
	a.Log.Sync()
}
