package reconcile

import (
	"context"
	"errors"
	"fmt"

	"song-catalog/core/reconcile"
	"song-catalog/feature/catalog/models"
)

// ErrCustomRow is returned when an action would write to a custom row.
var ErrCustomRow = errors.New("refusing to modify custom row")

// Rehome is the payload of a rehome_memberships action.
type Rehome struct {
	From string
	To   string
}

// storeMutator applies planned catalog actions to a Store.
type storeMutator struct {
	store Store
}

// NewMutator returns a reconcile.UnitMutator writing to store.
func NewMutator(store Store) reconcile.UnitMutator {
	return &storeMutator{store: store}
}

// Apply implements reconcile.Mutator.
func (m *storeMutator) Apply(ctx context.Context, a reconcile.Action) error {
	return apply(ctx, m.store, a)
}

// ApplyUnit runs all actions in one store transaction.
func (m *storeMutator) ApplyUnit(ctx context.Context, actions []reconcile.Action) error {
	return m.store.WithinTx(ctx, func(tx Store) error {
		for _, a := range actions {
			if err := apply(ctx, tx, a); err != nil {
				return fmt.Errorf("%s %s: %w", a.Type, a.Key, err)
			}
		}
		return nil
	})
}

func apply(ctx context.Context, s Store, a reconcile.Action) error {
	switch a.Type {
	case reconcile.ActionInsertPack, reconcile.ActionUpdatePack, reconcile.ActionDeletePack:
		row, ok := a.Payload.(models.PackRow)
		if !ok {
			return payloadError(a)
		}
		if !row.Mutable() {
			return ErrCustomRow
		}
		switch a.Type {
		case reconcile.ActionInsertPack:
			return s.InsertPack(ctx, row)
		case reconcile.ActionUpdatePack:
			return s.UpdatePack(ctx, row)
		default:
			return s.DeletePack(ctx, row.ID)
		}

	case reconcile.ActionInsertSong, reconcile.ActionUpdateSong, reconcile.ActionDeleteSong:
		row, ok := a.Payload.(models.SongRow)
		if !ok {
			return payloadError(a)
		}
		if !row.State.Mutable() {
			return ErrCustomRow
		}
		switch a.Type {
		case reconcile.ActionInsertSong:
			return s.InsertSong(ctx, row)
		case reconcile.ActionUpdateSong:
			return s.UpdateSong(ctx, row)
		default:
			return s.DeleteSong(ctx, row.ID)
		}

	case reconcile.ActionInsertMembership, reconcile.ActionDeleteMembership:
		row, ok := a.Payload.(models.MembershipRow)
		if !ok {
			return payloadError(a)
		}
		if a.Type == reconcile.ActionInsertMembership {
			return s.InsertMembership(ctx, row)
		}
		if !row.State.Mutable() {
			return ErrCustomRow
		}
		return s.DeleteMembership(ctx, row.SongID, row.PackID)

	case reconcile.ActionRehomeMemberships:
		r, ok := a.Payload.(Rehome)
		if !ok {
			return payloadError(a)
		}
		return s.RehomeMemberships(ctx, r.From, r.To)

	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

func payloadError(a reconcile.Action) error {
	return fmt.Errorf("unexpected payload %T for %s", a.Payload, a.Type)
}
