package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"song-catalog/core/storage"
	"song-catalog/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadObject(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "songs", "catalog.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(`{"songs":[]}`)), nil)

		data, err := storage.ReadObject(context.Background(), client, "songs", "catalog.json")
		require.NoError(t, err)
		assert.Equal(t, `{"songs":[]}`, string(data))
		client.AssertExpectations(t)
	})

	t.Run("GetError", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "songs", "missing.json", mock.Anything).
			Return(nil, errors.New("no such key"))

		_, err := storage.ReadObject(context.Background(), client, "songs", "missing.json")
		assert.ErrorContains(t, err, "no such key")
	})
}

func TestWriteObject(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "songs", "catalog.json", mock.Anything, int64(2),
		mock.MatchedBy(func(opts minio.PutObjectOptions) bool { return opts.ContentType == "application/json" })).
		Return(minio.UploadInfo{}, nil)

	err := storage.WriteObject(context.Background(), client, "songs", "catalog.json", "application/json", []byte("{}"))
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestListKeys(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "songs", mock.Anything).
			Return(mocks.Listing(minio.ObjectInfo{Key: "audio/a.ogg"}, minio.ObjectInfo{Key: "audio/b.ogg"}))

		keys, err := storage.ListKeys(context.Background(), client, "songs", "audio/")
		require.NoError(t, err)
		assert.Equal(t, []string{"audio/a.ogg", "audio/b.ogg"}, keys)
	})

	t.Run("ListError", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "songs", mock.Anything).
			Return(mocks.Listing(minio.ObjectInfo{Err: errors.New("access denied")}))

		_, err := storage.ListKeys(context.Background(), client, "songs", "audio/")
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("ListingCancelledOnError", func(t *testing.T) {
		var listCtx context.Context
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "songs", mock.Anything).
			Run(func(args mock.Arguments) { listCtx = args.Get(0).(context.Context) }).
			Return(mocks.Listing(minio.ObjectInfo{Err: errors.New("access denied")}, minio.ObjectInfo{Key: "audio/a.ogg"}))

		_, err := storage.ListKeys(context.Background(), client, "songs", "audio/")
		require.Error(t, err)
		require.NotNil(t, listCtx)
		assert.ErrorIs(t, listCtx.Err(), context.Canceled)
	})
}

func TestEnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "songs").Return(true, nil)

		require.NoError(t, storage.EnsureBucket(context.Background(), client, "songs", zap.NewNop()))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "songs").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "songs", minio.MakeBucketOptions{}).Return(nil).Once()

		require.NoError(t, storage.EnsureBucket(context.Background(), client, "songs", zap.NewNop()))
		client.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "songs").Return(false, errors.New("denied"))

		err := storage.EnsureBucket(context.Background(), client, "songs", zap.NewNop())
		assert.ErrorContains(t, err, "denied")
	})
}
