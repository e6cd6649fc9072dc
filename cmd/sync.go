package cmd

import (
	"errors"
	"fmt"

	"song-catalog/core/database"
	"song-catalog/core/reconcile"
	"song-catalog/core/storage"
	"song-catalog/feature/catalog"
	"song-catalog/feature/catalog/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync command
	syncCatalogPath string
	syncDryRun      bool
)

// syncCmd brings the song store in line with the catalog.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the song store against the catalog",
	Long: `Sync reads the catalog and the song store, plans the writes needed to
make the store match and applies them. Rows created in the store are never
changed. Write failures are reported and do not stop the run.

The catalog comes from --catalog, catalog.path, catalog.object in storage,
or the compiled-in catalog, in that order.

Examples:
  # Show what would change
  sync --dry-run

  # Sync from an explicit file
  sync --catalog catalog.json`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncCatalogPath, "catalog", "", "Catalog file to sync from")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan only, write nothing")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	l := rt.logger
	defer l.Sync()

	db, err := database.Connect(rt.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if rt.cfg.Database.AutoCreate {
		if err := store.EnsureSchema(db); err != nil {
			return fmt.Errorf("failed to create song store tables: %w", err)
		}
	}
	if err := store.VerifySchema(db); err != nil {
		return err
	}

	var client storage.Client
	if rt.cfg.Catalog.ArtifactPrefix != "" || (rt.cfg.Catalog.Object != "" && syncCatalogPath == "" && rt.cfg.Catalog.Path == "") {
		if client, err = storage.NewClient(rt.cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	svc := catalog.NewService(rt.cfg.Catalog, client, rt.cfg.Storage.Bucket, l)
	c, source, err := svc.Load(ctx, syncCatalogPath)
	if err != nil {
		return err
	}
	l.Info("Catalog loaded", zap.String("source", source), zap.Int("songs", len(c.Songs)), zap.Int("packs", len(c.Packs)))

	report, err := svc.Sync(ctx, store.NewGormStore(db), c, syncDryRun)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncReport(l, report.Plan, report.Result, report.DryRun)
	if report.Result.Failed > 0 {
		return fmt.Errorf("%d of %d writes failed", report.Result.Failed, report.Plan.Summary.Total)
	}
	return nil
}

func printSyncReport(l *zap.Logger, plan *reconcile.Plan, res reconcile.Result, dryRun bool) {
	s := plan.Summary

	fields := []zap.Field{
		zap.Int("total_actions", s.Total),
		zap.Int("duplicates", s.Duplicates),
		zap.Bool("dry_run", dryRun),
	}
	for _, t := range s.Types() {
		fields = append(fields, zap.Int(string(t), s.ByType[t]))
	}
	l.Info("Sync report", fields...)

	if plan.Empty() {
		l.Info("Store already matches the catalog")
		return
	}

	// Show sample of actions (max 5 for logger)
	maxShow := min(5, len(plan.Actions))
	for i := 0; i < maxShow; i++ {
		action := plan.Actions[i]
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}

	if dryRun {
		return
	}

	l.Info("Sync applied", zap.Int("executed", res.Executed), zap.Int("failed", res.Failed))
	for _, err := range res.Errors {
		var we *reconcile.WriteError
		if errors.As(err, &we) {
			l.Warn("Write failed",
				zap.String("type", string(we.Action.Type)),
				zap.String("key", we.Action.Key),
				zap.Error(we.Err),
			)
			continue
		}
		l.Warn("Write failed", zap.Error(err))
	}
}
