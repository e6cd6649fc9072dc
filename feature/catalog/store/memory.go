package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"song-catalog/feature/catalog/models"
	"song-catalog/feature/catalog/reconcile"
)

type membershipKey struct {
	songID string
	packID string
}

// memoryState is the unlocked row set of a MemoryStore.
type memoryState struct {
	songs       map[string]models.SongRow
	packs       map[string]models.PackRow
	memberships map[membershipKey]models.MembershipRow
}

func (st *memoryState) clone() memoryState {
	out := memoryState{
		songs:       make(map[string]models.SongRow, len(st.songs)),
		packs:       make(map[string]models.PackRow, len(st.packs)),
		memberships: make(map[membershipKey]models.MembershipRow, len(st.memberships)),
	}
	for k, v := range st.songs {
		out.songs[k] = v
	}
	for k, v := range st.packs {
		out.packs[k] = v
	}
	for k, v := range st.memberships {
		out.memberships[k] = v
	}
	return out
}

// MemoryStore keeps the catalog rows in memory. Transactions hold the store
// lock until they finish.
type MemoryStore struct {
	mu     sync.Mutex
	state  memoryState
	writes int
	fail   func(op, key string) error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memoryState{
		songs:       make(map[string]models.SongRow),
		packs:       make(map[string]models.PackRow),
		memberships: make(map[membershipKey]models.MembershipRow),
	}}
}

// FailOn makes every write for which fn returns an error fail with it.
func (s *MemoryStore) FailOn(fn func(op, key string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

// Writes returns the number of successful writes.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// PutSong stores a row as is, bypassing every guard.
func (s *MemoryStore) PutSong(row models.SongRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.songs[row.ID] = row
}

// PutPack stores a row as is, bypassing every guard.
func (s *MemoryStore) PutPack(row models.PackRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.packs[row.ID] = row
}

// PutMembership stores a row as is, bypassing every guard.
func (s *MemoryStore) PutMembership(row models.MembershipRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.memberships[membershipKey{row.SongID, row.PackID}] = row
}

// Snapshot implements reconcile.Store.
func (s *MemoryStore) Snapshot(context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().snapshot(), nil
}

func (s *MemoryStore) InsertPack(ctx context.Context, row models.PackRow) error {
	return s.locked(func(v *memoryView) error { return v.InsertPack(ctx, row) })
}

func (s *MemoryStore) UpdatePack(ctx context.Context, row models.PackRow) error {
	return s.locked(func(v *memoryView) error { return v.UpdatePack(ctx, row) })
}

func (s *MemoryStore) DeletePack(ctx context.Context, id string) error {
	return s.locked(func(v *memoryView) error { return v.DeletePack(ctx, id) })
}

func (s *MemoryStore) InsertSong(ctx context.Context, row models.SongRow) error {
	return s.locked(func(v *memoryView) error { return v.InsertSong(ctx, row) })
}

func (s *MemoryStore) UpdateSong(ctx context.Context, row models.SongRow) error {
	return s.locked(func(v *memoryView) error { return v.UpdateSong(ctx, row) })
}

func (s *MemoryStore) DeleteSong(ctx context.Context, id string) error {
	return s.locked(func(v *memoryView) error { return v.DeleteSong(ctx, id) })
}

func (s *MemoryStore) InsertMembership(ctx context.Context, row models.MembershipRow) error {
	return s.locked(func(v *memoryView) error { return v.InsertMembership(ctx, row) })
}

func (s *MemoryStore) DeleteMembership(ctx context.Context, songID, packID string) error {
	return s.locked(func(v *memoryView) error { return v.DeleteMembership(ctx, songID, packID) })
}

func (s *MemoryStore) RehomeMemberships(ctx context.Context, fromID, toID string) error {
	return s.locked(func(v *memoryView) error { return v.RehomeMemberships(ctx, fromID, toID) })
}

// WithinTx runs fn with the store locked and restores the previous rows when
// fn fails.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx reconcile.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.state.clone()
	writes := s.writes
	if err := fn(s.view()); err != nil {
		s.state = backup
		s.writes = writes
		return err
	}
	return nil
}

func (s *MemoryStore) locked(fn func(v *memoryView) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.view())
}

func (s *MemoryStore) view() *memoryView {
	return &memoryView{store: s}
}

// memoryView operates on the rows of a locked MemoryStore.
type memoryView struct {
	store *MemoryStore
}

func (v *memoryView) st() *memoryState {
	return &v.store.state
}

func (v *memoryView) write(op, key string, fn func() error) error {
	if v.store.fail != nil {
		if err := v.store.fail(op, key); err != nil {
			return err
		}
	}
	if err := fn(); err != nil {
		return err
	}
	v.store.writes++
	return nil
}

func (v *memoryView) snapshot() *models.Snapshot {
	st := v.st()
	snap := &models.Snapshot{}
	for _, r := range st.songs {
		snap.Songs = append(snap.Songs, r)
	}
	for _, r := range st.packs {
		snap.Packs = append(snap.Packs, r)
	}
	for _, r := range st.memberships {
		snap.Memberships = append(snap.Memberships, r)
	}
	sort.Slice(snap.Songs, func(i, j int) bool { return snap.Songs[i].ID < snap.Songs[j].ID })
	sort.Slice(snap.Packs, func(i, j int) bool { return snap.Packs[i].ID < snap.Packs[j].ID })
	sort.Slice(snap.Memberships, func(i, j int) bool {
		a, b := snap.Memberships[i], snap.Memberships[j]
		if a.SongID != b.SongID {
			return a.SongID < b.SongID
		}
		return a.PackID < b.PackID
	})
	return snap
}

func (v *memoryView) Snapshot(context.Context) (*models.Snapshot, error) {
	return v.snapshot(), nil
}

func (v *memoryView) InsertPack(_ context.Context, row models.PackRow) error {
	return v.write("insert_pack", row.ID, func() error {
		if _, ok := v.st().packs[row.ID]; ok {
			return fmt.Errorf("insert pack %s: duplicate key", row.ID)
		}
		v.st().packs[row.ID] = row
		return nil
	})
}

func (v *memoryView) UpdatePack(_ context.Context, row models.PackRow) error {
	return v.write("update_pack", row.ID, func() error {
		cur, ok := v.st().packs[row.ID]
		if !ok || !cur.Mutable() {
			return fmt.Errorf("update pack %s: %w", row.ID, ErrRowNotFound)
		}
		cur.Name = row.Name
		cur.LastModified = row.LastModified
		v.st().packs[row.ID] = cur
		return nil
	})
}

func (v *memoryView) DeletePack(_ context.Context, id string) error {
	return v.write("delete_pack", id, func() error {
		cur, ok := v.st().packs[id]
		if !ok || !cur.Mutable() {
			return fmt.Errorf("delete pack %s: %w", id, ErrRowNotFound)
		}
		delete(v.st().packs, id)
		return nil
	})
}

func (v *memoryView) InsertSong(_ context.Context, row models.SongRow) error {
	return v.write("insert_song", row.ID, func() error {
		if _, ok := v.st().songs[row.ID]; ok {
			return fmt.Errorf("insert song %s: duplicate key", row.ID)
		}
		v.st().songs[row.ID] = row
		return nil
	})
}

func (v *memoryView) UpdateSong(_ context.Context, row models.SongRow) error {
	return v.write("update_song", row.ID, func() error {
		cur, ok := v.st().songs[row.ID]
		if !ok || !cur.State.Mutable() {
			return fmt.Errorf("update song %s: %w", row.ID, ErrRowNotFound)
		}
		row.State = cur.State
		v.st().songs[row.ID] = row
		return nil
	})
}

func (v *memoryView) DeleteSong(_ context.Context, id string) error {
	return v.write("delete_song", id, func() error {
		cur, ok := v.st().songs[id]
		if !ok || !cur.State.Mutable() {
			return fmt.Errorf("delete song %s: %w", id, ErrRowNotFound)
		}
		delete(v.st().songs, id)
		for k, m := range v.st().memberships {
			if k.songID == id && m.State.Mutable() {
				delete(v.st().memberships, k)
			}
		}
		return nil
	})
}

func (v *memoryView) InsertMembership(_ context.Context, row models.MembershipRow) error {
	key := membershipKey{row.SongID, row.PackID}
	return v.write("insert_membership", row.SongID+"/"+row.PackID, func() error {
		if _, ok := v.st().memberships[key]; ok {
			return fmt.Errorf("insert membership %s/%s: duplicate key", row.SongID, row.PackID)
		}
		v.st().memberships[key] = row
		return nil
	})
}

func (v *memoryView) DeleteMembership(_ context.Context, songID, packID string) error {
	key := membershipKey{songID, packID}
	return v.write("delete_membership", songID+"/"+packID, func() error {
		cur, ok := v.st().memberships[key]
		if !ok || !cur.State.Mutable() {
			return fmt.Errorf("delete membership %s/%s: %w", songID, packID, ErrRowNotFound)
		}
		delete(v.st().memberships, key)
		return nil
	})
}

func (v *memoryView) RehomeMemberships(_ context.Context, fromID, toID string) error {
	return v.write("rehome_memberships", fromID, func() error {
		for k, m := range v.st().memberships {
			if k.songID != fromID {
				continue
			}
			delete(v.st().memberships, k)
			target := membershipKey{toID, k.packID}
			if _, taken := v.st().memberships[target]; taken {
				continue
			}
			m.SongID = toID
			v.st().memberships[target] = m
		}
		return nil
	})
}

// WithinTx runs fn in the enclosing transaction.
func (v *memoryView) WithinTx(_ context.Context, fn func(tx reconcile.Store) error) error {
	return fn(v)
}

var (
	_ reconcile.Store = (*MemoryStore)(nil)
	_ reconcile.Store = (*memoryView)(nil)
)
