package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/genegpt-qa-server/internal/domain"
)

// Migrate brings the postgres schema up to date from the migrations
// directory. No-op when the schema is already current.
func Migrate(cfg domain.DatabaseConfig, log *logrus.Logger) error {
	m, err := migrate.New(fmt.Sprintf("file://%s", cfg.MigrationsPath), URL(cfg))
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			log.WithError(sourceErr).Warn("failed to close migration source")
		}
		if dbErr != nil {
			log.WithError(dbErr).Warn("failed to close migration database handle")
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("database schema up to date")
			return nil
		}
		return fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.WithError(err).Warn("could not read migration version")
		return nil
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("database migrations applied")
	return nil
}
