package cmd

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chris/worklog/internal/auth"
	"github.com/chris/worklog/internal/config"
	"github.com/chris/worklog/internal/db"
	"github.com/chris/worklog/internal/generator"
	"github.com/chris/worklog/internal/history"
	"github.com/chris/worklog/internal/metrics"
	"github.com/chris/worklog/internal/summarize"
)

// nowFunc is the clock every command reads
var nowFunc = time.Now

// app is the wired set of components a command works with
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *db.DB
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

// openApp loads config, builds the logger and opens the journal
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	registry := prometheus.NewRegistry()
	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       database,
		registry: registry,
		metrics:  metrics.NewCollector(registry),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
	_ = a.logger.Sync()
}

func (a *app) newLoader() (*history.Loader, error) {
	return history.NewLoader(a.db,
		history.WithLoaderNow(nowFunc),
		history.WithLoaderLogger(a.logger.Named("loader")),
		history.WithLoadRecorder(a.metrics),
	)
}

// newMachine wires the summary state machine to the HTTP generator and the
// configured token
func (a *app) newMachine() (*summarize.Machine, error) {
	client, err := generator.New(generator.Options{
		Endpoint:      a.cfg.Generator.Endpoint,
		Timeout:       a.cfg.Generator.Timeout,
		RatePerMinute: a.cfg.Generator.RatePerMinute,
		Logger:        a.logger.Named("generator"),
	})
	if err != nil {
		return nil, err
	}
	tokens := auth.NewSource(a.cfg.Auth.Token, a.cfg.Auth.TokenFile,
		auth.WithNow(nowFunc),
		auth.WithLogger(a.logger.Named("auth")),
	)
	return summarize.New(a.db, tokens, client,
		summarize.WithNow(nowFunc),
		summarize.WithLanguage(a.cfg.Generator.Language),
		summarize.WithLogger(a.logger.Named("summarize")),
		summarize.WithRecorder(a.metrics),
	)
}

// newHistory builds the orchestrator over the journal
func (a *app) newHistory() (*history.History, error) {
	loader, err := a.newLoader()
	if err != nil {
		return nil, err
	}
	machine, err := a.newMachine()
	if err != nil {
		return nil, err
	}
	return history.New(loader, a.db, machine,
		history.WithPageSize(a.cfg.History.PageSize),
		history.WithNotificationTTL(a.cfg.History.NotificationTTL),
		history.WithLogger(a.logger.Named("history")),
		history.WithNow(nowFunc),
	)
}

// writeMetrics exports the run's counters when path is set
func (a *app) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.registry, path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
