// Command stub-backend serves the manual question-answering contract from
// local storage and canned answers, for developing the client offline.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/config"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/storage"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/stubapi"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stub-backend",
		Short: "Serve the manual question-answering API from local files",
		Long: `stub-backend stores uploaded PDF manuals on disk and answers questions
from a YAML file of canned answers, so the assistant can run offline.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "assistant.yaml", "Config file path (YAML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stub-backend version %s (build: %s)\n", Version, BuildTime)
		},
	})
	return cmd
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	store, err := storage.NewLocalStore(cfg.Stub.DataDirectory)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	book, err := stubapi.LoadAnswerBook(cfg.Stub.AnswersFile)
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}

	e := stubapi.NewServer(&stubapi.Dependencies{
		Store:            store,
		Answers:          book,
		APIKeyConfigured: cfg.Stub.APIKeyConfigured,
		Logger:           log,
	}, stubapi.MiddlewareOptions{
		BodyLimit:      cfg.Stub.BodyLimit,
		EnableCORS:     cfg.Stub.EnableCORS,
		RequestLogging: cfg.Stub.RequestLogging,
		Logger:         log,
	})

	s := &http.Server{
		Addr:         cfg.GetStubAddr(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("Car Manual Assistant stub backend %s (%s)\n", Version, BuildTime)
	fmt.Printf("  Config:   %s\n", configPath)
	fmt.Printf("  Listen:   http://%s\n", cfg.GetStubAddr())
	fmt.Printf("  Manuals:  %s\n", cfg.Stub.DataDirectory)
	fmt.Printf("  API key:  %v\n", cfg.Stub.APIKeyConfigured)
	fmt.Printf("\n")

	serveErr := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-serveErr:
		if ok {
			log.Error("server stopped", "error", err)
			return err
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
		return err
	}
	return nil
}
