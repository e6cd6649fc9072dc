package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	core "song-catalog/core/reconcile"
	"song-catalog/core/storage"
	"song-catalog/feature/catalog/artifact"
	"song-catalog/feature/catalog/data"
	"song-catalog/feature/catalog/importer"
	"song-catalog/feature/catalog/models"
	"song-catalog/feature/catalog/reconcile"
)

// Catalog sources reported by Load.
const (
	SourceFile     = "file"
	SourceObject   = "object"
	SourceEmbedded = "embedded"
)

// DefaultImportPath is the file import writes when neither --out nor
// Config.Path is set.
const DefaultImportPath = "catalog.json"

// Service runs catalog imports and syncs.
type Service struct {
	cfg    Config
	client storage.Client
	bucket string
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a catalog service. client may be nil when object storage
// is not configured.
func NewService(cfg Config, client storage.Client, bucket string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:    cfg,
		client: client,
		bucket: bucket,
		logger: logger,
		now:    time.Now,
	}
}

// NewResolver returns the conflict resolver of a policy. The prompt policy
// reads answers from in and writes questions to out.
func NewResolver(policy string, in io.Reader, out io.Writer) (importer.Resolver, error) {
	switch policy {
	case PolicyPrompt:
		return importer.NewPrompt(in, out), nil
	case PolicyExisting:
		return importer.PreferExisting, nil
	case PolicyIncoming:
		return importer.PreferIncoming, nil
	case PolicyCancel:
		return importer.CancelOnConflict, nil
	default:
		return nil, fmt.Errorf("invalid conflict policy %q", policy)
	}
}

// ImportOptions configures one import run.
type ImportOptions struct {
	// Out is the catalog file to write; defaults to Config.Path, then
	// DefaultImportPath.
	Out string
	// Resolver decides conflicts.
	Resolver importer.Resolver
	// Publish uploads the written catalog to Config.Object.
	Publish bool
}

// ImportResult describes a finished import.
type ImportResult struct {
	Catalog   *models.Catalog
	Stats     importer.Stats
	Out       string
	Published string
}

// Import merges the raw records at src into the catalog file. The previous
// catalog file, if any, seeds the merge. Nothing is written unless the whole
// import succeeds.
func (s *Service) Import(ctx context.Context, src string, opts ImportOptions) (*ImportResult, error) {
	out := opts.Out
	if out == "" {
		out = s.cfg.Path
	}
	if out == "" {
		out = DefaultImportPath
	}

	prior, err := models.ReadFile(out, s.now())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("No previous catalog, starting empty", zap.String("path", out))
		prior = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read previous catalog: %w", err)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	c, stats, err := importer.Import(ctx, f, importer.Options{
		Prior:    prior,
		Resolver: opts.Resolver,
		Now:      s.now,
		Logger:   s.logger,
	})
	if err != nil {
		return nil, err
	}

	if err := models.WriteFile(out, c); err != nil {
		return nil, err
	}
	result := &ImportResult{Catalog: c, Stats: stats, Out: out}

	if opts.Publish || s.cfg.Publish {
		name, err := s.publish(ctx, out, c)
		if err != nil {
			return result, err
		}
		result.Published = name
	}
	return result, nil
}

func (s *Service) publish(ctx context.Context, out string, c *models.Catalog) (string, error) {
	if s.client == nil {
		return "", errors.New("object storage is not configured")
	}
	if err := storage.EnsureBucket(ctx, s.client, s.bucket, s.logger); err != nil {
		return "", err
	}
	name := s.cfg.Object
	if name == "" {
		name = filepath.Base(out)
	}

	format := models.FormatFromPath(name)
	payload, err := models.Marshal(format, c)
	if err != nil {
		return "", err
	}
	contentType := "application/json"
	if format == models.FormatYAML {
		contentType = "application/yaml"
	}
	if err := storage.WriteObject(ctx, s.client, s.bucket, name, contentType, payload); err != nil {
		return "", err
	}
	return name, nil
}

// Load returns the authoritative catalog: the file at path (or Config.Path),
// else the Config.Object storage object, else the compiled-in catalog.
func (s *Service) Load(ctx context.Context, path string) (*models.Catalog, string, error) {
	if path == "" {
		path = s.cfg.Path
	}
	now := s.now()

	if path != "" {
		c, err := models.ReadFile(path, now)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load catalog: %w", err)
		}
		return c, SourceFile, nil
	}

	if s.cfg.Object != "" && s.client != nil {
		payload, err := storage.ReadObject(ctx, s.client, s.bucket, s.cfg.Object)
		if err != nil {
			return nil, "", err
		}
		c, err := models.Decode(bytes.NewReader(payload), models.FormatFromPath(s.cfg.Object), now)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", s.cfg.Object, err)
		}
		return c, SourceObject, nil
	}

	c, err := data.Catalog(now)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load compiled-in catalog: %w", err)
	}
	return c, SourceEmbedded, nil
}

// Availability returns the artifact lookup: the storage prefix when one is
// configured, otherwise the local artifact directory.
func (s *Service) Availability() reconcile.Availability {
	if s.cfg.ArtifactPrefix != "" && s.client != nil {
		ttl := time.Duration(s.cfg.ArtifactCacheTTLSeconds) * time.Second
		return artifact.NewBucket(s.client, s.bucket, s.cfg.ArtifactPrefix, s.cfg.ArtifactExt, ttl)
	}
	return artifact.NewDir(s.cfg.ArtifactDir, s.cfg.ArtifactExt)
}

// Sync brings st in line with c.
func (s *Service) Sync(ctx context.Context, st reconcile.Store, c *models.Catalog, dryRun bool) (*reconcile.Report, error) {
	engine := reconcile.NewEngine(st, s.Availability(), s.logger)
	return engine.Sync(ctx, c, core.Options{DryRun: dryRun, Workers: s.cfg.SyncWorkers})
}
