package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationTarget selects which schema is migrated.
type MigrationTarget string

// Migration targets.
const (
	GraphSchema    MigrationTarget = "graph"
	TrackingSchema MigrationTarget = "tracking"
)

// MigrationResult reports what a migration did.
type MigrationResult struct {
	Target      MigrationTarget
	FromVersion uint
	ToVersion   uint
	Changed     bool
}

// Migrate runs schema migrations for one store.
//   - If targetVersion < 0, it migrates to the latest version.
//   - If targetVersion == 0, it rolls back all migrations.
//   - If targetVersion > 0, it migrates to the specified version.
func Migrate(target MigrationTarget, backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	result := MigrationResult{Target: target}
	if backend == schema.NoneBackend {
		return result, contract.ConfigErrorf("migrations are not supported for the none backend")
	}

	defaultPath := contract.GetGraphDBFilePath()
	if target == TrackingSchema {
		defaultPath = contract.GetTrackingDBFilePath()
	}
	db, err := openSQL(backend, connStr, defaultPath)
	if err != nil {
		return result, err
	}
	defer func() { _ = db.Close() }()

	m, err := newMigrator(target, backend, db)
	if err != nil {
		return result, err
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", current)
	}
	result.FromVersion = current

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		result.ToVersion = current
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to migrate %s schema: %w", target, err)
	}

	result.Changed = true
	if v, _, verr := m.Version(); verr == nil {
		result.ToVersion = v
	}
	return result, nil
}

// newMigrator builds a migrate instance over the embedded scripts for target and backend.
func newMigrator(target MigrationTarget, backend schema.DatabaseBackend, db *sql.DB) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		dir    string
		err    error
	)
	switch backend {
	case schema.SQLiteBackend:
		dir = "sqlite"
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case schema.MySQLBackend:
		dir = "mysql"
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		dir = "postgres"
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return nil, contract.ConfigErrorf("unsupported backend: %s", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(target)+"/"+dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "formpath_"+string(target), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
