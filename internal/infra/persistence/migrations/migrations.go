// Package migrations applies the embedded PostgreSQL schema with golang-migrate.
package migrations

import (
	"embed"
	"log/slog"

	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers postgres://
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migration files as a golang-migrate source.
func Source() (source.Driver, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, errors.Wrap(err, "open embedded migrations")
	}

	return src, nil
}

func newMigrate(dsn string) (*migrate.Migrate, error) {
	if dsn == "" {
		return nil, errors.New("migration dsn is empty")
	}

	src, err := Source()
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "init migrate")
	}

	return m, nil
}

// Up applies every pending migration.
func Up(dsn string, logger *slog.Logger) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}

	logVersion(m, logger)

	return nil
}

// Down rolls back steps migrations.
func Down(dsn string, steps int, logger *slog.Logger) error {
	if steps <= 0 {
		return errors.Errorf("invalid rollback steps %d", steps)
	}

	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "rollback migrations")
	}

	logVersion(m, logger)

	return nil
}

func logVersion(m *migrate.Migrate, logger *slog.Logger) {
	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("Database schema is empty")

			return
		}
		logger.Warn("Failed to read schema version", slog.Any("error", err))

		return
	}

	logger.Info("Database schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Failed to close migrate", slog.Any("sourceError", srcErr), slog.Any("databaseError", dbErr))
	}
}
