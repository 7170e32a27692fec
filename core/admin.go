package core

import (
	"context"
	"fmt"
	"os"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/gateway"
	"github.com/huangsam/formpath/internal/store"
	"github.com/huangsam/formpath/schema"
)

// ExecuteGraphImport loads a YAML questionnaire into the graph store.
func ExecuteGraphImport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if cfg.QuestionnaireFile == "" {
		return contract.ValidationErrorf("--file is required for import")
	}
	gw, err := openGateway(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	f, err := os.Open(cfg.QuestionnaireFile)
	if err != nil {
		return fmt.Errorf("open questionnaire: %w", err)
	}
	defer func() { _ = f.Close() }()

	qn, err := gateway.ParseQuestionnaire(f)
	if err != nil {
		return err
	}
	summary, err := gw.ImportQuestionnaire(ctx, qn)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Imported %d questions and %d propositions\n", summary.Questions, summary.Propositions)
	return err
}

// ExecuteGraphStatus prints the state of the graph store.
func ExecuteGraphStatus(ctx context.Context, _ *contract.Config, mgr contract.StoreManager) error {
	gs := mgr.GetGraphStore()
	if gs == nil {
		return contract.ConfigErrorf("graph store is not initialized")
	}
	status, err := gs.GetStatus(ctx)
	if err != nil {
		return err
	}
	store.PrintGraphStatus(stdout, status)
	return nil
}

// ExecuteGraphClear drops every vertex and edge, including stored forms.
func ExecuteGraphClear(ctx context.Context, _ *contract.Config, mgr contract.StoreManager) error {
	gs := mgr.GetGraphStore()
	if gs == nil {
		return contract.ConfigErrorf("graph store is not initialized")
	}
	if err := gs.Clear(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(stdout, "Graph store cleared")
	return err
}

// ExecuteTrackingStatus prints the state of the tracker.
func ExecuteTrackingStatus(ctx context.Context, _ *contract.Config, mgr contract.StoreManager) error {
	tracker, err := openTracker(mgr)
	if err != nil {
		return err
	}
	status, err := tracker.GetStatus(ctx)
	if err != nil {
		return err
	}
	store.PrintTrackingStatus(stdout, status)
	return nil
}

// ExecuteGraphMigrate migrates the SQL graph schema.
func ExecuteGraphMigrate(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	if cfg.GraphBackend == schema.GraphNeo4j {
		return contract.ConfigErrorf("migrations are not supported for the neo4j graph backend")
	}
	return runMigration(store.GraphSchema, schema.DatabaseBackend(cfg.GraphBackend), cfg.GraphDBConnect, cfg.TargetVersion)
}

// ExecuteTrackingMigrate migrates the SQL tracking schema.
func ExecuteTrackingMigrate(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	if cfg.TrackingBackend == schema.TrackingMLflow {
		return contract.ConfigErrorf("migrations are not supported for the mlflow tracking backend")
	}
	return runMigration(store.TrackingSchema, schema.DatabaseBackend(cfg.TrackingBackend), cfg.TrackingDBConnect, cfg.TargetVersion)
}

func runMigration(target store.MigrationTarget, backend schema.DatabaseBackend, connStr string, version int) error {
	result, err := store.Migrate(target, backend, connStr, version)
	if err != nil {
		return err
	}
	if !result.Changed {
		_, err = fmt.Fprintf(stdout, "%s schema already at version %d\n", result.Target, result.FromVersion)
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s schema migrated from version %d to %d\n", result.Target, result.FromVersion, result.ToVersion)
	return err
}
