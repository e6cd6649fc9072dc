package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"song-catalog/core/storage"
)

// validMediaID rejects ids that could escape the artifact directory.
func validMediaID(mediaID string) bool {
	return mediaID != "" && !strings.ContainsAny(mediaID, `/\`) && mediaID != "." && mediaID != ".."
}

// Dir finds artifacts stored as <dir>/<media id><ext>.
type Dir struct {
	path string
	ext  string
}

// NewDir returns a Dir rooted at path.
func NewDir(path, ext string) *Dir {
	return &Dir{path: path, ext: ext}
}

// Has reports whether the artifact file exists.
func (d *Dir) Has(_ context.Context, mediaID string) (bool, error) {
	if !validMediaID(mediaID) {
		return false, nil
	}
	info, err := os.Stat(filepath.Join(d.path, mediaID+d.ext))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Bucket finds artifacts stored as objects <prefix>/<media id><ext>.
// The object listing is cached for ttl; concurrent misses share one listing.
type Bucket struct {
	client storage.Client
	bucket string
	prefix string
	ext    string
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	keys  map[string]struct{}
	built time.Time
	sf    singleflight.Group
}

// NewBucket returns a Bucket. A zero ttl lists the bucket on every lookup.
func NewBucket(client storage.Client, bucket, prefix, ext string, ttl time.Duration) *Bucket {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: prefix,
		ext:    ext,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Has reports whether the artifact object exists.
func (b *Bucket) Has(ctx context.Context, mediaID string) (bool, error) {
	if !validMediaID(mediaID) {
		return false, nil
	}
	keys, err := b.keySet(ctx)
	if err != nil {
		return false, err
	}
	_, ok := keys[b.prefix+mediaID+b.ext]
	return ok, nil
}

// Invalidate drops the cached listing.
func (b *Bucket) Invalidate() {
	b.mu.Lock()
	b.keys = nil
	b.mu.Unlock()
}

func (b *Bucket) fresh() (map[string]struct{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.keys == nil || b.ttl <= 0 || b.now().Sub(b.built) > b.ttl {
		return nil, false
	}
	return b.keys, true
}

func (b *Bucket) keySet(ctx context.Context) (map[string]struct{}, error) {
	if keys, ok := b.fresh(); ok {
		return keys, nil
	}

	result, err, _ := b.sf.Do("keys", func() (interface{}, error) {
		if keys, ok := b.fresh(); ok {
			return keys, nil
		}

		list, err := storage.ListKeys(ctx, b.client, b.bucket, b.prefix)
		if err != nil {
			return nil, err
		}
		keys := make(map[string]struct{}, len(list))
		for _, k := range list {
			keys[k] = struct{}{}
		}

		b.mu.Lock()
		b.keys = keys
		b.built = b.now()
		b.mu.Unlock()
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]struct{}), nil
}
