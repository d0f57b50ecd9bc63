// Package cmd is the shared main for bot binaries: it resolves the config
// path, bootstraps the application and runs the Telegram runtime until a
// termination signal arrives.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/dopiumbot/core/buildinfo"
	coreconfig "github.com/m3rciful/dopiumbot/core/config"
	"github.com/m3rciful/dopiumbot/core/logger"
	coretelegram "github.com/m3rciful/dopiumbot/core/telegram"
)

// ConfigCarrier exposes the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp builds the runtime options of a bootstrapped application.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wire a binary to its application package.
type Options struct {
	// ConfigEnvVar names the variable holding the config path; CONFIG_PATH
	// when empty.
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	// Bootstrap receives a context cancelled on SIGINT or SIGTERM.
	Bootstrap func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ConfigPath resolves the config file from env, then the default.
func (o Options) ConfigPath() (string, error) {
	env := o.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if o.DefaultConfigPath == "" {
		return "", fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
	}
	return o.DefaultConfigPath, nil
}

// Run blocks until the bot stops.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return fmt.Errorf("cmd: LoadConfig and Bootstrap are required")
	}
	startedAt := time.Now()

	cfgPath, err := opts.ConfigPath()
	if err != nil {
		return err
	}
	cfg, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: load config %s: %w", cfgPath, err)
	}
	if cfg.CoreConfig() == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
		}
	}()
	logger.Info(ctx, logger.CompApp, "app.start",
		slog.String("version", buildinfo.String()),
		slog.String("config", cfgPath),
	)

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	runOpts.OnStart = chainStart(runOpts.OnStart, startedAt)
	runOpts.OnStop = chainStop(runOpts.OnStop)

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

func chainStart(next func(context.Context, coretelegram.Runtime) error, startedAt time.Time) func(context.Context, coretelegram.Runtime) error {
	return func(ctx context.Context, rt coretelegram.Runtime) error {
		if next != nil {
			if err := next(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, logger.CompApp, "app.ready", slog.Duration("duration", logger.Took(startedAt)))
		return nil
	}
}

func chainStop(next func(context.Context, coretelegram.Runtime) error) func(context.Context, coretelegram.Runtime) error {
	return func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, logger.CompApp, "app.shutdown")
		if next != nil {
			return next(ctx, rt)
		}
		return nil
	}
}
