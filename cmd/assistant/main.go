// Command assistant is the Car Manual Assistant client: a terminal chat UI
// plus one-shot commands against the manual question-answering service.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/app"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/config"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/events"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/registry"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/tui"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// errReported marks a failure the user has already been shown.
var errReported = errors.New("reported")

type options struct {
	configPath string
	logLevel   string
	apiURL     string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Ask questions about your car manuals",
		Long: `Upload car manuals (PDF) and ask questions about maintenance, features
or troubleshooting. Without a subcommand the interactive chat starts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "assistant.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Service base URL (overrides config)")

	cmd.AddCommand(
		chatCmd(opts),
		healthCmd(opts),
		manualsCmd(opts),
		uploadCmd(opts),
		deleteCmd(opts),
		askCmd(opts),
		watchCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("assistant version %s (build: %s)\n", Version, BuildTime)
			},
		},
	)
	return cmd
}

func chatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts)
		},
	}
}

func healthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the service is reachable and configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer shutdown(a)

			health, err := a.Client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintln(os.Stderr, "✗ Cannot connect to server")
				return errReported
			}
			fmt.Printf("%s  status=%s api_key_configured=%v\n", a.Client.BaseURL(), health.Status, health.APIKeyConfigured)
			if !health.APIKeyConfigured {
				fmt.Fprintln(os.Stderr, "✗ OpenAI API key not configured")
				return errReported
			}
			return nil
		},
	}
}

func manualsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "manuals",
		Aliases: []string{"ls"},
		Short:   "List uploaded manuals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer shutdown(a)

			docs, err := a.Registry.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Println("No manuals uploaded yet")
				return nil
			}
			for _, d := range docs {
				fmt.Println(d.Name)
			}
			return nil
		},
	}
}

func uploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a PDF manual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer shutdown(a)

			if _, err := a.UploadPath(cmd.Context(), args[0]); err != nil {
				return errReported
			}
			a.Wait()
			if snap := a.Uploads.Current(); snap.Status == models.UploadFailed {
				return errReported
			}
			if name, ok := a.Registry.Selected(); ok {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func deleteCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an uploaded manual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer shutdown(a)

			confirm := func(string) bool { return true }
			if !yes {
				confirm = promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			err = a.Registry.Delete(cmd.Context(), args[0], confirm)
			switch {
			case registry.IsNotConfirmed(err):
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
				return nil
			case err != nil:
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func askCmd(opts *options) *cobra.Command {
	var manual string
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer shutdown(a)

			if manual != "" {
				a.Registry.Select(manual)
			}
			if _, err := a.Conversation.Submit(cmd.Context(), strings.Join(args, " ")); err != nil {
				return errReported
			}
			a.Wait()

			turns := a.Conversation.Turns()
			if len(turns) == 0 {
				return errReported
			}
			last := turns[len(turns)-1]
			if last.IsError {
				return errReported
			}
			fmt.Println(last.Content)
			if last.Source != "" {
				fmt.Printf("\nSource: %s\n", last.Source)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&manual, "manual", "m", "", "Manual to ask about (default: general question)")
	return cmd
}

func watchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Upload PDFs as they are dropped into a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer shutdown(a)

			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			w := a.DropWatcher(dir)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %s (Ctrl+C to stop)\n", w.Dir())
			return w.Run(ctx)
		},
	}
}

func runChat(ctx context.Context, opts *options) error {
	a, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer shutdown(a)

	if err := a.RestoreTranscript(); err != nil {
		a.Log.Warn("could not restore transcript", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The drop folder is only watched from the chat when it already exists.
	if fi, err := os.Stat(a.Config.Watch.Directory); err == nil && fi.IsDir() {
		w := a.DropWatcher("")
		go func() {
			if err := w.Run(ctx); err != nil {
				a.Log.Warn("drop folder disabled", "dir", w.Dir(), "error", err)
			}
		}()
	}

	runErr := tui.Run(ctx, a)
	cancel()
	a.Wait()
	if err := a.SaveTranscript(); err != nil {
		a.Log.Warn("could not save transcript", "error", err)
	}
	return runErr
}

// setup loads configuration and builds the client. The chat UI owns the
// terminal, so it logs only when a log file is configured; one-shot commands
// also echo notifications to stderr.
func setup(opts *options, interactive bool) (*app.App, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var log *logger.Logger
	switch {
	case interactive && cfg.Logging.File == "":
		log = logger.NewNop()
	default:
		if log, err = logger.New(cfg.Logging.Mode, cfg.Logging.Level, cfg.Logging.File); err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	a := app.New(cfg, log)
	if !interactive {
		a.Bus.Subscribe(printNotifications(os.Stderr))
	}
	return a, nil
}

func shutdown(a *app.App) {
	a.Wait()
	a.Close()
}

func printNotifications(w io.Writer) events.Handler {
	return func(ev events.Event) {
		if ev.Kind != events.NotificationChanged {
			return
		}
		n, ok := ev.Data.(models.Notification)
		if !ok {
			return
		}
		mark := "✓"
		if n.Severity == models.SeverityError {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, n.Message)
	}
}

func promptConfirm(in io.Reader, out io.Writer) registry.ConfirmFunc {
	return func(name string) bool {
		fmt.Fprintf(out, "Delete %q? [y/N] ", name)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
