package models

import "time"

// Origin tells where a store row came from.
type Origin uint8

const (
	// OriginCatalog rows are derived from the authoritative catalog.
	OriginCatalog Origin = iota
	// OriginCustom rows were created directly in the store and are never
	// altered or deleted by a sync.
	OriginCustom
)

func (o Origin) String() string {
	if o == OriginCustom {
		return "custom"
	}
	return "catalog"
}

// Tombstone is the soft-delete marker of a store row.
type Tombstone uint8

const (
	// Live rows are visible to consumers.
	Live Tombstone = iota
	// MarkedForDeletion rows are pending removal; the marker survives syncs.
	MarkedForDeletion
)

func (t Tombstone) String() string {
	if t == MarkedForDeletion {
		return "marked_for_deletion"
	}
	return "live"
}

// RowState is the ownership and tombstone state of a store row.
type RowState struct {
	Origin    Origin
	Tombstone Tombstone
}

// Mutable reports whether a sync may update or delete the row.
func (s RowState) Mutable() bool {
	return s.Origin != OriginCustom
}

// Custom reports whether the row is owned by the store.
func (s RowState) Custom() bool {
	return s.Origin == OriginCustom
}

// Marked reports whether the row carries the soft-delete marker.
func (s RowState) Marked() bool {
	return s.Tombstone == MarkedForDeletion
}

// NewRowState builds a RowState from the two persisted flags.
func NewRowState(custom, markedForDeletion bool) RowState {
	var s RowState
	if custom {
		s.Origin = OriginCustom
	}
	if markedForDeletion {
		s.Tombstone = MarkedForDeletion
	}
	return s
}

// SongRow is a persisted song.
type SongRow struct {
	ID           string
	MediaID      string
	Title        string
	Artist       string
	Year         int
	Offset       int
	Label        string
	LastModified time.Time
	// Available reports whether the audio artifact has been acquired.
	Available bool
	State     RowState
}

// NewSongRow returns the managed row for a catalog song.
func NewSongRow(s Song, available bool, tombstone Tombstone) SongRow {
	return SongRow{
		ID:           s.ID,
		MediaID:      s.MediaID,
		Title:        s.Title,
		Artist:       s.Artist,
		Year:         s.Year,
		Offset:       s.Offset,
		Label:        s.Label,
		LastModified: s.LastModified,
		Available:    available,
		State:        RowState{Origin: OriginCatalog, Tombstone: tombstone},
	}
}

// PackRow is a persisted pack. Packs carry no tombstone.
type PackRow struct {
	ID           string
	Name         string
	LastModified time.Time
	Origin       Origin
}

// Mutable reports whether a sync may update or delete the row.
func (p PackRow) Mutable() bool {
	return p.Origin != OriginCustom
}

// MembershipRow is a persisted song/pack link, unique per (SongID, PackID).
type MembershipRow struct {
	SongID string
	PackID string
	State  RowState
}

// Snapshot is a point-in-time read of every store row.
type Snapshot struct {
	Songs       []SongRow
	Packs       []PackRow
	Memberships []MembershipRow
}

// SnapshotIndex gives keyed access to a snapshot.
type SnapshotIndex struct {
	songsByID    map[string]*SongRow
	songsByMedia map[string][]*SongRow
	packsByID    map[string]*PackRow
	memberships  map[string][]MembershipRow
}

// Index builds lookups over the snapshot rows.
func (s *Snapshot) Index() *SnapshotIndex {
	idx := &SnapshotIndex{
		songsByID:    make(map[string]*SongRow, len(s.Songs)),
		songsByMedia: make(map[string][]*SongRow, len(s.Songs)),
		packsByID:    make(map[string]*PackRow, len(s.Packs)),
		memberships:  make(map[string][]MembershipRow),
	}
	for i := range s.Songs {
		row := &s.Songs[i]
		idx.songsByID[row.ID] = row
		idx.songsByMedia[row.MediaID] = append(idx.songsByMedia[row.MediaID], row)
	}
	for i := range s.Packs {
		idx.packsByID[s.Packs[i].ID] = &s.Packs[i]
	}
	for _, m := range s.Memberships {
		idx.memberships[m.SongID] = append(idx.memberships[m.SongID], m)
	}
	return idx
}

// Song returns the row with the given id.
func (idx *SnapshotIndex) Song(id string) (*SongRow, bool) {
	row, ok := idx.songsByID[id]
	return row, ok
}

// SongsByMediaID returns every row sharing the natural key, in snapshot order.
func (idx *SnapshotIndex) SongsByMediaID(mediaID string) []*SongRow {
	return idx.songsByMedia[mediaID]
}

// Pack returns the pack row with the given id.
func (idx *SnapshotIndex) Pack(id string) (*PackRow, bool) {
	row, ok := idx.packsByID[id]
	return row, ok
}

// Memberships returns the memberships of a song.
func (idx *SnapshotIndex) Memberships(songID string) []MembershipRow {
	return idx.memberships[songID]
}
