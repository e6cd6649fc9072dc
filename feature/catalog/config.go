package catalog

import "fmt"

// Conflict policies accepted by Config.ConflictPolicy.
const (
	PolicyPrompt   = "prompt"
	PolicyExisting = "existing"
	PolicyIncoming = "incoming"
	PolicyCancel   = "cancel"
)

// Config holds configuration for import and sync runs.
type Config struct {
	// Path is the catalog file read by sync and written by import.
	// Empty means the compiled-in catalog for sync.
	Path string `mapstructure:"path" default:""`
	// Object is the storage object the catalog is published to and fetched from.
	Object string `mapstructure:"object" default:""`
	// Publish uploads every imported catalog to Object.
	Publish bool `mapstructure:"publish" default:"false"`
	// ArtifactDir is the local directory holding downloaded audio artifacts.
	ArtifactDir string `mapstructure:"artifact_dir" default:"data/audio"`
	// ArtifactPrefix switches artifact lookup to object storage under this prefix.
	ArtifactPrefix string `mapstructure:"artifact_prefix" default:""`
	// ArtifactExt is the file extension of audio artifacts.
	ArtifactExt string `mapstructure:"artifact_ext" default:".ogg"`
	// ArtifactCacheTTLSeconds is how long a storage listing is reused.
	ArtifactCacheTTLSeconds int `mapstructure:"artifact_cache_ttl_seconds" default:"300"`
	// SyncWorkers is the number of songs reconciled concurrently.
	SyncWorkers int `mapstructure:"sync_workers" default:"4"`
	// ConflictPolicy decides import conflicts (prompt, existing, incoming, cancel).
	ConflictPolicy string `mapstructure:"conflict_policy" default:"prompt"`
}

// Validate checks the values that cannot be corrected silently.
func (c Config) Validate() error {
	if !IsValidPolicy(c.ConflictPolicy) {
		return fmt.Errorf("invalid conflict policy %q (want prompt, existing, incoming or cancel)", c.ConflictPolicy)
	}
	if c.SyncWorkers < 1 {
		return fmt.Errorf("sync_workers must be at least 1, got %d", c.SyncWorkers)
	}
	return nil
}

// IsValidPolicy checks if name is a known conflict policy.
func IsValidPolicy(name string) bool {
	switch name {
	case PolicyPrompt, PolicyExisting, PolicyIncoming, PolicyCancel:
		return true
	default:
		return false
	}
}
