package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"song-catalog/core/storage/mocks"
)

func TestDirHas(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dQw4w9WgXcQ.ogg"), []byte("audio"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.ogg"), 0o755))

	d := NewDir(dir, ".ogg")
	ctx := context.Background()

	tests := []struct {
		mediaID string
		want    bool
	}{
		{"dQw4w9WgXcQ", true},
		{"fJ9rUzIMcZQ", false},
		{"folder", false},
		{"../dQw4w9WgXcQ", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mediaID, func(t *testing.T) {
			got, err := d.Has(ctx, tt.mediaID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func listing(keys ...string) <-chan minio.ObjectInfo {
	objs := make([]minio.ObjectInfo, len(keys))
	for i, k := range keys {
		objs[i] = minio.ObjectInfo{Key: k}
	}
	return mocks.Listing(objs...)
}

func TestBucketHasCachesListing(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "songs", mock.MatchedBy(func(o minio.ListObjectsOptions) bool {
		return o.Prefix == "audio/" && o.Recursive
	})).Return(listing("audio/dQw4w9WgXcQ.ogg", "audio/notes.txt")).Once()

	b := NewBucket(client, "songs", "/audio/", ".ogg", time.Minute)
	ctx := context.Background()

	ok, err := b.Has(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Has(ctx, "fJ9rUzIMcZQ")
	require.NoError(t, err)
	assert.False(t, ok)

	client.AssertNumberOfCalls(t, "ListObjects", 1)
}

func TestBucketExpires(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "songs", mock.Anything).Return(listing()).Once()
	client.On("ListObjects", mock.Anything, "songs", mock.Anything).Return(listing("a.ogg")).Once()

	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	b := NewBucket(client, "songs", "", ".ogg", time.Minute)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := b.Has(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = b.Has(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	client.AssertNumberOfCalls(t, "ListObjects", 2)
}

func TestBucketInvalidate(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "songs", mock.Anything).Return(listing()).Once()
	client.On("ListObjects", mock.Anything, "songs", mock.Anything).Return(listing("a.ogg")).Once()

	b := NewBucket(client, "songs", "", ".ogg", time.Hour)
	ctx := context.Background()

	ok, _ := b.Has(ctx, "a")
	assert.False(t, ok)
	b.Invalidate()
	ok, _ = b.Has(ctx, "a")
	assert.True(t, ok)
}

func TestBucketListError(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "songs", mock.Anything).
		Return(mocks.Listing(minio.ObjectInfo{Err: errors.New("access denied")})).Once()

	b := NewBucket(client, "songs", "", ".ogg", time.Hour)
	_, err := b.Has(context.Background(), "a")
	assert.ErrorContains(t, err, "access denied")
}

func TestBucketConcurrentLookups(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "songs", mock.Anything).Return(listing("a.ogg")).Once()

	b := NewBucket(client, "songs", "", ".ogg", time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := b.Has(context.Background(), "a")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	client.AssertNumberOfCalls(t, "ListObjects", 1)
}
