package models

import (
	"errors"
	"fmt"

	"song-catalog/core/identity"
)

// ErrDuplicateKey is returned when a catalog binds one key to two entries.
var ErrDuplicateKey = errors.New("duplicate catalog key")

// CatalogIndex finds catalog songs and packs by either of their keys.
// Songs are keyed by ID and MediaID, packs by ID and name.
type CatalogIndex struct {
	Songs *identity.Index[*Song]
	Packs *identity.Index[*Pack]
}

// Index builds the dual-key index of the catalog. It fails when two songs
// share an ID or a MediaID, or two packs share an ID or a name. The index
// points into the catalog slices; do not append to them while it is in use.
func (c *Catalog) Index() (*CatalogIndex, error) {
	idx := &CatalogIndex{
		Songs: identity.New[*Song](),
		Packs: identity.New[*Pack](),
	}

	for i := range c.Packs {
		p := &c.Packs[i]
		if col := idx.Packs.Insert(p, identity.ByID(p.ID), identity.ByNaturalKey(p.Name)); len(col) > 0 {
			return nil, fmt.Errorf("%w: pack %s (also used by pack %s)", ErrDuplicateKey, col[0].Key, col[0].Existing.ID)
		}
	}

	for i := range c.Songs {
		s := &c.Songs[i]
		if col := idx.Songs.Insert(s, identity.ByID(s.ID), identity.ByNaturalKey(s.MediaID)); len(col) > 0 {
			return nil, fmt.Errorf("%w: song %s (also used by song %s)", ErrDuplicateKey, col[0].Key, col[0].Existing.ID)
		}
	}

	return idx, nil
}

// SongByID returns the song with the given surrogate id.
func (idx *CatalogIndex) SongByID(id string) (*Song, bool) {
	return idx.Songs.Get(identity.ByID(id))
}

// SongByMediaID returns the song with the given natural key.
func (idx *CatalogIndex) SongByMediaID(mediaID string) (*Song, bool) {
	return idx.Songs.Get(identity.ByNaturalKey(mediaID))
}

// PackByID returns the pack with the given id.
func (idx *CatalogIndex) PackByID(id string) (*Pack, bool) {
	return idx.Packs.Get(identity.ByID(id))
}

// PackByName returns the pack with the given name.
func (idx *CatalogIndex) PackByName(name string) (*Pack, bool) {
	return idx.Packs.Get(identity.ByNaturalKey(name))
}
