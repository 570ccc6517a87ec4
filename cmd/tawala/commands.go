package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/tawala/internal/application"
	"github.com/eugenenazirov/tawala/internal/config"
	"github.com/eugenenazirov/tawala/internal/database"
	"github.com/eugenenazirov/tawala/internal/helpers"
	"github.com/eugenenazirov/tawala/internal/logging"
	"github.com/eugenenazirov/tawala/internal/postinit"
	"github.com/eugenenazirov/tawala/internal/scaffold"
	"github.com/eugenenazirov/tawala/internal/settings"
)

const databaseCheckTimeout = 5 * time.Second

func (c *cli) load() (*config.Settings, *settings.Materialized, error) {
	cfg, err := config.Load(c.options())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m, err := settings.Materialize(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, m, nil
}

func (c *cli) serve() error {
	if c.serveAddr != "" {
		c.overrides[config.ServerAddr.Key] = c.serveAddr
	}

	cfg, m, err := c.load()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Debug: m.Debug})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Debug("configuration loaded",
		zap.String("project_file", cfg.ProjectFile()),
		zap.String("env_file", cfg.EnvFile()),
		zap.String("base_dir", m.BaseDir),
	)

	ctx, cancel := context.WithTimeout(context.Background(), databaseCheckTimeout)
	if err := database.Check(ctx, m.DefaultDatabase(), logger); err != nil {
		logger.Warn("database check failed", zap.Error(err))
	}
	cancel()

	app, err := application.New(m, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app.Server(), m.Server.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}

func (c *cli) printSettings() error {
	_, m, err := c.load()
	if err != nil {
		return err
	}

	out := m.Map()
	if !c.showSecrets {
		maskSecrets(out)
	}

	data, err := encodeSettings(out, c.format)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(data)
	return err
}

func (c *cli) explain() error {
	cfg, err := config.Load(c.options())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	values := cfg.Values()
	keys := make([]helpers.Choice[string], 0, len(values))
	envs := make([]helpers.Choice[string], 0, len(values))
	for _, v := range values {
		keys = append(keys, helpers.Choice[string]{Value: v.Field.Key, Label: v.Display()})
		envs = append(envs, helpers.Choice[string]{Value: v.Field.Env})
	}
	keyWidth := helpers.MaxLengthFromChoices(keys)
	envWidth := helpers.MaxLengthFromChoices(envs)

	if f := cfg.ProjectFile(); f != "" {
		fmt.Fprintf(c.stdout, "# project file: %s\n", f)
	}
	if f := cfg.EnvFile(); f != "" {
		fmt.Fprintf(c.stdout, "# env file: %s\n", f)
	}
	for _, v := range values {
		fmt.Fprintf(c.stdout, "%-*s  %-*s  %-8s  %s\n", keyWidth, v.Field.Key, envWidth, v.Field.Env, v.Source, v.Display())
	}
	return nil
}

func (c *cli) check() error {
	_, m, err := c.load()
	if err != nil {
		return err
	}
	if _, err := postinit.New(m); err != nil {
		return err
	}

	if !c.skipDatabase {
		ctx, cancel := context.WithTimeout(context.Background(), databaseCheckTimeout)
		defer cancel()
		if err := database.Check(ctx, m.DefaultDatabase(), zap.NewNop()); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.stdout, "configuration ok: database %s, storage %s\n",
		m.DefaultDatabase().Engine, m.DefaultStorage().Backend)
	return nil
}

func (c *cli) paths() error {
	cfg, err := config.Load(c.options())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	entries := scaffold.FromConfig(cfg.Generate).All()
	choices := make([]helpers.Choice[string], 0, len(entries))
	for _, e := range entries {
		choices = append(choices, helpers.Choice[string]{Value: e.Name, Label: e.Path})
	}
	width := helpers.MaxLengthFromChoices(choices)
	for _, choice := range choices {
		fmt.Fprintf(c.stdout, "%-*s  %s\n", width, choice.Value, choice.Label)
	}
	return nil
}
