package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/dopiumbot/core/config"
	coretelegram "github.com/m3rciful/dopiumbot/core/telegram"
)

type stubConfig struct{ core *coreconfig.Config }

func (s stubConfig) CoreConfig() *coreconfig.Config { return s.core }

type stubApp struct{ stopped *bool }

func (a stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStop: func(context.Context, coretelegram.Runtime) error {
			*a.stopped = true
			return nil
		},
	}, nil
}

func TestConfigPath(t *testing.T) {
	t.Setenv("BOT_CFG", "")
	opts := Options{ConfigEnvVar: "BOT_CFG", DefaultConfigPath: "config.yaml"}
	if p, err := opts.ConfigPath(); err != nil || p != "config.yaml" {
		t.Fatalf("default path = %q, %v", p, err)
	}
	t.Setenv("BOT_CFG", "/etc/bot.yaml")
	if p, _ := opts.ConfigPath(); p != "/etc/bot.yaml" {
		t.Fatalf("env path = %q", p)
	}
	t.Setenv("BOT_CFG", "")
	if _, err := (Options{ConfigEnvVar: "BOT_CFG"}).ConfigPath(); err == nil {
		t.Fatalf("expected error without any path")
	}
}

func TestRunChainsLifecycleHooks(t *testing.T) {
	stopped := false
	started := false
	err := Run(Options{
		DefaultConfigPath: "unused.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return stubConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return stubApp{stopped: &stopped}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if opts.OnStart == nil || opts.OnStop == nil {
				t.Fatalf("hooks not installed")
			}
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			started = true
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !started || !stopped {
		t.Fatalf("started=%v stopped=%v", started, stopped)
	}
}

func TestRunReportsLoadErrors(t *testing.T) {
	boom := errors.New("boom")
	err := Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
