package importer

import (
	"context"
	"errors"
	"io"

	"song-catalog/feature/catalog/models"
)

// Import reads every record from src and merges it. Any error, including
// ErrCancelled, aborts the whole import and no catalog is returned.
func Import(ctx context.Context, src io.Reader, opts Options) (*models.Catalog, Stats, error) {
	m, err := NewMerger(opts)
	if err != nil {
		return nil, Stats{}, err
	}

	r := NewReader(src)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, m.Stats(), err
		}
		if err := m.Add(ctx, rec); err != nil {
			return nil, m.Stats(), err
		}
	}

	return m.Catalog(), m.Stats(), nil
}
