package cmd

import (
	"errors"
	"fmt"
	"os"

	"song-catalog/core/storage"
	"song-catalog/feature/catalog"
	"song-catalog/feature/catalog/importer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	// Flags for import command
	importOut     string
	importPolicy  string
	importPublish bool
)

// importCmd folds a raw record file into the catalog file.
var importCmd = &cobra.Command{
	Use:   "import <records.csv>",
	Short: "Import raw song records into the catalog file",
	Long: `Import reads semicolon-delimited song records (performer;year;title;pack;
label;link;offset) and merges them into the catalog file: --out, else catalog.path, else
catalog.json in the working directory. The previous catalog keeps song and
pack ids stable across imports.

Conflicting values for the same song are resolved by the conflict policy:
  prompt    ask on the terminal (default)
  existing  keep the first value seen
  incoming  take the newest value
  cancel    abort on the first conflict

Examples:
  # Interactive import
  import records.csv

  # Unattended import, newest value wins, then publish to storage
  import records.csv --policy incoming --publish`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importOut, "out", "", "Catalog file to write (defaults to catalog.path, then catalog.json)")
	importCmd.Flags().StringVar(&importPolicy, "policy", "", "Conflict policy: prompt, existing, incoming or cancel (defaults to catalog.conflict_policy)")
	importCmd.Flags().BoolVar(&importPublish, "publish", false, "Upload the catalog to object storage after writing it")

	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	l := rt.logger
	defer l.Sync()

	policy := importPolicy
	if policy == "" {
		policy = rt.cfg.Catalog.ConflictPolicy
	}
	if policy == catalog.PolicyPrompt && !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("conflict policy %q needs an interactive terminal, use --policy", policy)
	}
	resolver, err := catalog.NewResolver(policy, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	var client storage.Client
	if importPublish || rt.cfg.Catalog.Publish {
		if client, err = storage.NewClient(rt.cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	svc := catalog.NewService(rt.cfg.Catalog, client, rt.cfg.Storage.Bucket, l)

	l.Info("Starting import", zap.String("records", args[0]), zap.String("policy", policy))
	res, err := svc.Import(ctx, args[0], catalog.ImportOptions{
		Out:      importOut,
		Resolver: resolver,
		Publish:  importPublish,
	})
	if errors.Is(err, importer.ErrCancelled) {
		l.Warn("Import cancelled by user. No changes were made.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	l.Info("Catalog written",
		zap.String("path", res.Out),
		zap.Int("records", res.Stats.Records),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("conflicts", res.Stats.Conflicts),
		zap.Int("songs", res.Stats.Songs),
		zap.Int("packs", res.Stats.Packs),
	)
	if res.Published != "" {
		l.Info("Catalog published", zap.String("bucket", rt.cfg.Storage.Bucket), zap.String("object", res.Published))
	}
	return nil
}
