// Package store persists the questionnaire graph and experiment runs.
package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"

	// SQL drivers for every supported backend.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// StoreManager holds the graph store and the tracker.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	graph        contract.GraphStore
	tracker      contract.Tracker
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps already opened stores.
func NewStoreManager(graph contract.GraphStore, tracker contract.Tracker) *StoreManager {
	return &StoreManager{graph: graph, tracker: tracker}
}

// GetGraphStore returns the graph store.
func (mgr *StoreManager) GetGraphStore() contract.GraphStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.graph
}

// GetTracker returns the tracker.
func (mgr *StoreManager) GetTracker() contract.Tracker {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.tracker
}

// driverNameFor maps a SQL backend to its database/sql driver name.
func driverNameFor(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// openSQL opens and pings a SQL backend. defaultPath is used for SQLite when connStr is empty.
func openSQL(backend schema.DatabaseBackend, connStr, defaultPath string) (*sql.DB, error) {
	driverName, err := driverNameFor(backend)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = defaultPath
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=...", err)
		}
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, contract.Unavailable(string(backend), fmt.Errorf("failed to connect: %w. %s", err, connDetail))
	}

	return db, nil
}

// wrapSQL marks errors of a lost or closed connection as unavailable. Other
// errors, including constraint and syntax failures, pass through unchanged.
func wrapSQL(backend schema.DatabaseBackend, err error) error {
	if err == nil || errors.Is(err, contract.ErrUnavailable) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr) || strings.Contains(err.Error(), "database is closed") {
		return contract.Unavailable(string(backend), err)
	}
	return err
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// placeholder returns the n-th (1-based) parameter placeholder for the backend.
func placeholder(backend schema.DatabaseBackend, n int) string {
	switch backend {
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("$%d", n)
	default: // SQLite and MySQL
		return "?"
	}
}
