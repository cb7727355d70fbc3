package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/swbridge/internal/binding"
	"github.com/Norgate-AV/swbridge/internal/client"
	"github.com/Norgate-AV/swbridge/internal/config"
	"github.com/Norgate-AV/swbridge/internal/logger"
	"github.com/Norgate-AV/swbridge/internal/native/local"
	"github.com/Norgate-AV/swbridge/internal/version"
)

// annotationNative marks commands that talk to the native client.
const annotationNative = "swbridge/native"

// ExecutionContext holds state shared by a command run and its teardown.
type ExecutionContext struct {
	cfg      *Config
	settings config.Config
	log      logger.LoggerInterface
	native   *local.Client
	handle   *client.Handle
	api      *binding.API
	parent   context.Context
	stop     context.CancelFunc
}

type execKey struct{}

// RootCmd is the root command for the swbridge CLI application.
var RootCmd = &cobra.Command{
	Use:               "swbridge",
	Short:             "swbridge - Friends and screenshots through the native client",
	Version:           version.GetVersion(),
	Args:              cobra.NoArgs,
	RunE:              guarded(runRoot),
	PersistentPreRunE: setup,
	SilenceUsage:      true, // Don't show usage on runtime errors
}

func init() {
	RootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	RootCmd.PersistentFlags().BoolP("verbose", "V", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolP("logs", "l", false, "print the current log file to stdout and exit")
	RootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
	RootCmd.PersistentFlags().Bool("metrics", false, "print call metrics to stderr when done")
	RootCmd.PersistentFlags().String("config", "", "path to swbridge.yaml (default: $"+config.ConfigEnv+" or ./swbridge.yaml)")
	RootCmd.PersistentFlags().String("fixture", "", "path to the native fixture (default: $"+local.FixtureEnv+" or ./"+local.DefaultFixturePath+")")
}

func runRoot(cmd *cobra.Command, _ *ExecutionContext, _ []string) error {
	return cmd.Help()
}

// handleLogsFlag processes the --logs flag and exits if needed
func handleLogsFlag(cfg *Config, opts logger.LoggerOptions, out io.Writer, exitFunc func(int)) error {
	if !cfg.ShowLogs {
		return nil
	}

	if err := logger.PrintLogFile(out, opts); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Log file does not exist: %s\n", logger.GetLogPath(opts))
			exitFunc(1)
			return nil
		}

		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		exitFunc(1)
		return nil
	}

	exitFunc(0)
	return nil
}

// initializeLogger creates a logger from the effective configuration
func initializeLogger(cfg *Config, settings config.Config) (logger.LoggerInterface, error) {
	log, err := logger.NewLogger(settings.LoggerOptions(cfg.Verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// resolveFixturePath picks --fixture, then native.fixture, then the default lookup.
func resolveFixturePath(cfg *Config, settings config.Config) string {
	if cfg.FixturePath != "" {
		return cfg.FixturePath
	}

	if settings.Native.Fixture != "" {
		return settings.Native.Fixture
	}

	return local.GetFixturePath()
}

// openNative loads the local native client and registers it process-wide
func openNative(path string, log logger.LoggerInterface) (*local.Client, *client.Handle, error) {
	native, err := local.Open(path, log)
	if err != nil {
		log.Error("Native client unavailable", slog.Any("error", err))
		return nil, nil, err
	}

	handle, err := client.Init(native, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register native client: %w", err)
	}

	return native, handle, nil
}

func needsNative(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationNative] == "true"
}

// setup prepares configuration, logging and the native client before a command runs.
func setup(cmd *cobra.Command, args []string) error {
	return setupWithExit(cmd, args, os.Exit)
}

// setupWithExit is the testable version with an injected exit function
func setupWithExit(cmd *cobra.Command, args []string, exitFunc func(int)) error {
	cfg := NewConfigFromFlags(cmd)

	settings, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}

	if cfg.ShowLogs {
		return handleLogsFlag(cfg, settings.LoggerOptions(false), cmd.OutOrStdout(), exitFunc)
	}

	log, err := initializeLogger(cfg, settings)
	if err != nil {
		return err
	}

	log.Debug("Starting swbridge",
		slog.String("command", cmd.CommandPath()),
		slog.Any("args", args),
		slog.String("version", version.GetFullVersion()),
		slog.Bool("dev", version.IsDev()),
	)
	log.Debug("Flags set",
		slog.Bool("verbose", cfg.Verbose),
		slog.Bool("json", cfg.JSON),
		slog.String("config", settings.Source),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)

	ex := &ExecutionContext{
		cfg:      cfg,
		settings: settings,
		log:      log,
		parent:   cmd.Context(),
		stop:     stop,
	}

	if needsNative(cmd) {
		path := resolveFixturePath(cfg, settings)
		log.Debug("Opening native client", slog.String("fixture", path))

		native, handle, err := openNative(path, log)
		if err != nil {
			stop()
			log.Close()
			return err
		}

		ex.native = native
		ex.handle = handle
	}

	ex.api = binding.New(log, binding.Options{Dispatch: settings.DispatcherOptions()})

	cmd.SetContext(withExecutionContext(ctx, ex))
	return nil
}

// teardown releases everything setup acquired. Cobra skips post-run hooks
// after a failed RunE, so guarded calls it directly.
func teardown(cmd *cobra.Command, ex *ExecutionContext) {
	if err := ex.api.Close(); err != nil {
		ex.log.Warn("Screenshot jobs did not finish", slog.Any("error", err))
	}

	if ex.cfg.ShowMetrics {
		if err := ex.api.Metrics().WriteText(cmd.ErrOrStderr()); err != nil {
			ex.log.Error("Failed to print metrics", slog.Any("error", err))
		}
	}

	if ex.handle != nil {
		client.Shutdown()
	}

	ex.stop()
	cmd.SetContext(ex.parent)
	ex.log.Debug("Done")
	ex.log.Close()
}

func withExecutionContext(ctx context.Context, ex *ExecutionContext) context.Context {
	return context.WithValue(ctx, execKey{}, ex)
}

func fromCommand(cmd *cobra.Command) *ExecutionContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}

	ex, _ := ctx.Value(execKey{}).(*ExecutionContext)
	return ex
}

// guarded adapts a command body so that it receives the ExecutionContext
// and a panic is logged and reported instead of crashing the process.
func guarded(fn func(cmd *cobra.Command, ex *ExecutionContext, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ex := fromCommand(cmd)
		if ex == nil {
			// --logs was handled during setup
			if getBoolFlag(cmd, "logs") {
				return nil
			}
			return errors.New("command context not initialized")
		}

		defer teardown(cmd, ex)

		// Recover from panics and log them
		defer func() {
			if r := recover(); r != nil {
				ex.log.Error("PANIC RECOVERED",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)

				fmt.Fprintf(cmd.ErrOrStderr(), "\n*** PANIC: %v ***\n", r)
				fmt.Fprintf(cmd.ErrOrStderr(), "Check log file for details: %s\n", ex.log.GetLogPath())
				err = fmt.Errorf("internal error: %v", r)
			}
		}()

		return fn(cmd, ex, args)
	}
}
