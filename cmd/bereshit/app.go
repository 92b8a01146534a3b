package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BeFlock/bereshit/internal/commands"
	"github.com/BeFlock/bereshit/internal/config"
	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/opener"
	"github.com/BeFlock/bereshit/internal/project"
	"github.com/BeFlock/bereshit/internal/registry"
	"github.com/BeFlock/bereshit/internal/telemetry"
)

type folderOpener = opener.FolderOpener

// app is the wired set of components one command invocation uses.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
	store  *registry.Store
	svc    *commands.Service
}

// loadConfig reads the config file and environment, then applies flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, err
	}

	if o.dataDir != "" {
		cfg.Registry.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, o *rootOptions, stderr io.Writer) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version), stderr)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	lp := tel.LoggerProvider()
	logCfg.Output.OTEL = lp != nil
	logger, err := logging.NewLogger(logCfg, lp)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	if degraded, derr := tel.Degraded(); degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Error(derr))
	}

	fo := o.folderOpener
	if fo == nil {
		platform, err := opener.ParsePlatform(cfg.Opener.Platform)
		if err != nil {
			return nil, err
		}
		fo = opener.New(platform, opener.NewLauncher(opener.ExecSpawner{}))
	}

	store := registry.NewStore(cfg.Registry.DataDir,
		registry.WithLogger(logger.Named("registry")),
		registry.WithTracer(tel.Tracer("github.com/BeFlock/bereshit/internal/registry")),
	)
	svc := commands.NewService(store, project.NewFactory(store), fo,
		commands.WithLogger(logger.Named("commands")),
		commands.WithTracer(tel.Tracer("github.com/BeFlock/bereshit/internal/commands")),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		tel:    tel,
		store:  store,
		svc:    svc,
	}, nil
}

func (a *app) close() {
	ctx := context.Background()
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// runFunc is a command body that receives a wired app.
type runFunc func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error

// withApp wires an app for the duration of fn.
func (o *rootOptions) withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApp(ctx, o, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()

		return fn(ctx, cmd, args, a)
	}
}
