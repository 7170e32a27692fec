package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/mlflow"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores opens the graph store and the tracker once per process.
func InitStores(ctx context.Context, cfg *contract.Config, logger *zap.Logger) error {
	var initErr error

	initOnce.Do(func() {
		graph, err := NewGraphStore(ctx, cfg, logger)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize graph store: %w", err)
			return
		}

		tracker, err := NewTracker(cfg, logger)
		if err != nil {
			_ = graph.Close()
			initErr = fmt.Errorf("failed to initialize tracker: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.graph = graph
		Manager.tracker = tracker
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.graph != nil {
			_ = Manager.graph.Close()
		}
		if Manager.tracker != nil {
			_ = Manager.tracker.Close()
		}
	})
}

// NewTracker opens the tracker for the configured backend.
func NewTracker(cfg *contract.Config, logger *zap.Logger) (contract.Tracker, error) {
	switch cfg.TrackingBackend {
	case schema.TrackingMLflow:
		return mlflow.NewClient(cfg.TrackingURI, logger), nil
	case schema.TrackingNone, "":
		return NoneTracker{}, nil
	case schema.TrackingSQLite, schema.TrackingMySQL, schema.TrackingPostgres:
		st, err := NewSQLTracker(schema.DatabaseBackend(cfg.TrackingBackend), cfg.TrackingDBConnect, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, contract.ConfigErrorf("unsupported tracking backend: %s", cfg.TrackingBackend)
	}
}
