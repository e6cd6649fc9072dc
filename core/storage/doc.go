// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so that the catalog tools can publish and fetch
// the authoritative catalog file and list the audio artifacts that back the
// songs. The same client works against AWS S3 and self-hosted MinIO.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Helpers
//
//   - ReadObject: downloads a whole object (the catalog file).
//   - WriteObject: uploads a byte slice with a content type.
//   - ListKeys: lists every key under a prefix, surfacing listing errors.
//   - EnsureBucket: creates the bucket before the first publish.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	data, err := storage.ReadObject(ctx, client, "songs", "catalog/catalog.json")
package storage
