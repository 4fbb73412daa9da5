// Package app assembles the pipeline and its dependencies from
// configuration. Both entrypoints share this wiring.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/genegpt-qa-server/internal/config"
	"github.com/genegpt-qa-server/internal/database"
	"github.com/genegpt-qa-server/internal/domain"
	"github.com/genegpt-qa-server/internal/evidence"
	"github.com/genegpt-qa-server/internal/history"
	"github.com/genegpt-qa-server/internal/pipeline"
	"github.com/genegpt-qa-server/internal/service"
	"github.com/genegpt-qa-server/internal/session"
	"github.com/genegpt-qa-server/pkg/external"
)

const gatherTimeout = 15 * time.Second

// Components holds the assembled application graph.
type Components struct {
	Config   domain.Config
	Log      *logrus.Logger
	Pipeline *pipeline.Pipeline
	Sessions *session.Store
	History  history.Store

	db             *database.DB
	cache          *external.CacheClient
	sessionBackend session.Backend
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	log := logrus.New()

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Output == "stderr" {
		log.SetOutput(os.Stderr)
	}

	return log
}

// Build wires sessions, evidence clients, history and the pipeline from
// configuration. Call Close when done.
func Build(ctx context.Context, manager *config.Manager, log *logrus.Logger) (*Components, error) {
	cfg := manager.GetConfig()

	c := &Components{Config: *cfg, Log: log}

	backend, err := c.buildSessionBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c.sessionBackend = backend
	c.Sessions = session.NewStore(backend, cfg.Session, log)

	ncbi := external.NewNCBIGeneClient(cfg.ExternalAPI.NCBI)
	resolver, err := service.NewGeneResolver(ncbi, cfg.ExternalAPI.Mim2Gene, log)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create gene resolver: %w", err)
	}

	if cfg.Cache.Enabled {
		cache, err := external.NewCacheClient(cfg.Cache)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.cache = cache
	}

	sources := evidence.Sources{
		OMIM:        external.NewOMIMClient(cfg.ExternalAPI.OMIM),
		NCBI:        ncbi,
		PubMed:      external.NewPubMedClient(cfg.ExternalAPI.PubMed),
		ClinVar:     external.NewClinVarClient(cfg.ExternalAPI.ClinVar),
		GeneReviews: external.NewGeneReviewsClient(cfg.ExternalAPI.GeneReviews),
		GnomAD:      external.NewGnomADClient(cfg.ExternalAPI.GnomAD),
	}
	aggregator := evidence.NewAggregator(sources, c.cache, gatherTimeout, log)

	if err := c.buildHistory(cfg, manager, log); err != nil {
		c.Close()
		return nil, err
	}

	c.Pipeline = pipeline.NewPipeline(c.Sessions, resolver, aggregator, c.History, log)
	return c, nil
}

func (c *Components) buildSessionBackend(ctx context.Context, cfg *domain.Config, log *logrus.Logger) (session.Backend, error) {
	switch cfg.Session.Driver {
	case "memory":
		return session.NewMemoryBackend(), nil

	case "sqlite", "":
		backend, err := session.NewSQLiteBackend(cfg.Session.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return backend, nil

	case "postgres":
		if err := database.Migrate(cfg.Database, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		db, err := database.Connect(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		c.db = db
		return session.NewPostgresBackend(db.Pool), nil

	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
}

// buildHistory picks the audit-log store to match the session driver.
// The memory driver is for ephemeral runs, so it gets no history.
func (c *Components) buildHistory(cfg *domain.Config, manager *config.Manager, log *logrus.Logger) error {
	switch cfg.Session.Driver {
	case "postgres":
		store, err := history.NewPostgresStore(manager.GetDatabaseConnectionString())
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		c.History = store

	case "sqlite", "":
		path := filepath.Join(filepath.Dir(cfg.Session.SQLitePath), "history.db")
		store, err := history.NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		c.History = store

	default:
		log.Debug("history disabled for in-memory sessions")
	}
	return nil
}

// Close releases database and cache connections.
func (c *Components) Close() {
	if c.History != nil {
		if err := c.History.Close(); err != nil {
			c.Log.WithError(err).Warn("failed to close history store")
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.Log.WithError(err).Warn("failed to close redis client")
		}
	}
	if closer, ok := c.sessionBackend.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			c.Log.WithError(err).Warn("failed to close session backend")
		}
	}
	if c.db != nil {
		c.db.Close()
	}
}
