package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// noVersion is what migrate.Force takes to clear the recorded version.
const noVersion = -1

// schemaState is the version recorded in schema_migrations.
type schemaState struct {
	version uint
	dirty   bool
	empty   bool
}

func (s schemaState) logValue() any {
	if s.empty {
		return "none"
	}
	return s.version
}

func newSource() (source.Driver, error) {
	src, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	return src, nil
}

// Latest returns the highest embedded migration version.
func Latest() (uint, error) {
	src, err := newSource()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("reading first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("reading migration after %d: %w", v, err)
		}
		v = next
	}
}

// RunMigrations brings the salestrack schema up to the latest embedded version.
// With autoMigrate false it only checks the recorded version and warns when the schema lags behind.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	src, err := newSource()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	latest, err := Latest()
	if err != nil {
		return err
	}

	state, err := readState(m)
	if err != nil {
		return err
	}

	if state.dirty {
		if !autoMigrate {
			return fmt.Errorf("schema is dirty at version %d and auto-migration is disabled", state.version)
		}
		if err := rewind(m, src, state.version); err != nil {
			return err
		}
	}

	if !autoMigrate {
		if state.empty || state.version < latest {
			slog.Warn("[Migrations] Schema is behind and auto-migration is disabled",
				"current_version", state.logValue(),
				"latest_version", latest)
		}
		return nil
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	slog.Info("[Migrations] Schema ready",
		"from_version", state.logValue(),
		"to_version", latest)
	return nil
}

func readState(m *migrate.Migrate) (schemaState, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return schemaState{empty: true}, nil
	}
	if err != nil {
		return schemaState{}, fmt.Errorf("reading schema version: %w", err)
	}
	return schemaState{version: version, dirty: dirty}, nil
}

// rewind resets a dirty version to its predecessor so Up re-applies it.
// Every up migration uses IF NOT EXISTS, so replaying a half-applied one is safe.
func rewind(m *migrate.Migrate, src source.Driver, dirty uint) error {
	target := noVersion
	prev, err := src.Prev(dirty)
	switch {
	case err == nil:
		target = int(prev)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("finding migration before %d: %w", dirty, err)
	}

	slog.Warn("[Migrations] Replaying interrupted migration", "dirty_version", dirty, "reset_to", target)
	if err := m.Force(target); err != nil {
		return fmt.Errorf("resetting dirty version %d: %w", dirty, err)
	}
	return nil
}
