package reconcile

import (
	"context"

	"song-catalog/feature/catalog/models"
)

// Store is the row-level surface of the persisted catalog.
//
// Update and delete operations only ever touch rows that are not custom.
// DeleteSong also removes the song's managed memberships.
type Store interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	InsertPack(ctx context.Context, row models.PackRow) error
	UpdatePack(ctx context.Context, row models.PackRow) error
	DeletePack(ctx context.Context, id string) error

	InsertSong(ctx context.Context, row models.SongRow) error
	UpdateSong(ctx context.Context, row models.SongRow) error
	DeleteSong(ctx context.Context, id string) error

	InsertMembership(ctx context.Context, row models.MembershipRow) error
	DeleteMembership(ctx context.Context, songID, packID string) error
	// RehomeMemberships moves every membership of fromID to toID, keeping
	// their flags. Memberships for packs toID already belongs to are dropped.
	RehomeMemberships(ctx context.Context, fromID, toID string) error

	// WithinTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Availability reports whether the audio artifact of a song exists.
type Availability interface {
	Has(ctx context.Context, mediaID string) (bool, error)
}

// AvailabilityFunc adapts a function to Availability.
type AvailabilityFunc func(ctx context.Context, mediaID string) (bool, error)

// Has calls f.
func (f AvailabilityFunc) Has(ctx context.Context, mediaID string) (bool, error) {
	return f(ctx, mediaID)
}

// Unavailable reports every artifact as missing.
var Unavailable Availability = AvailabilityFunc(func(context.Context, string) (bool, error) {
	return false, nil
})
