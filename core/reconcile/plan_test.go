package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingMutator records applied actions and fails the keys listed in failOn.
type recordingMutator struct {
	mu      sync.Mutex
	applied []Action
	failOn  map[string]error
}

func (m *recordingMutator) Apply(ctx context.Context, action Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failOn[action.Key]; ok {
		return err
	}
	m.applied = append(m.applied, action)
	return nil
}

func (m *recordingMutator) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.applied))
	for _, a := range m.applied {
		out = append(out, a.Key)
	}
	return out
}

// txMutator additionally supports atomic units.
type txMutator struct {
	recordingMutator
	unitErr error
	units   int
}

func (m *txMutator) ApplyUnit(ctx context.Context, actions []Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units++
	if m.unitErr != nil {
		return m.unitErr
	}
	m.applied = append(m.applied, actions...)
	return nil
}

func TestPlan_Add(t *testing.T) {
	var p Plan
	assert.True(t, p.Empty())

	p.Add(Action{Type: ActionInsertSong, Key: "1"})
	p.Add(Action{Type: ActionInsertSong, Key: "2"})
	p.Add(Action{Type: ActionDeletePack, Key: "p"})

	assert.False(t, p.Empty())
	assert.Equal(t, 3, p.Summary.Total)
	assert.Equal(t, 2, p.Summary.ByType[ActionInsertSong])
	assert.Equal(t, []ActionType{ActionDeletePack, ActionInsertSong}, p.Summary.Types())
}

func TestApplyPlan_DryRunAndEmpty(t *testing.T) {
	m := &recordingMutator{}
	p := &Plan{}
	p.Add(Action{Type: ActionInsertPack, Key: "p1"})

	res := ApplyPlan(context.Background(), m, p, Options{DryRun: true}, zap.NewNop())
	assert.Equal(t, Result{}, res)
	assert.Empty(t, m.keys())

	res = ApplyPlan(context.Background(), m, &Plan{}, Options{}, nil)
	assert.Equal(t, Result{}, res)
}

func TestApplyPlan_PhaseOrder(t *testing.T) {
	m := &recordingMutator{}
	p := &Plan{}
	p.Add(Action{Type: ActionDeletePack, Key: "orphan-pack", Phase: PhaseOrphanPacks})
	p.Add(Action{Type: ActionDeleteSong, Key: "orphan-song", Phase: PhaseOrphanSongs})
	p.Add(Action{Type: ActionInsertSong, Key: "song", Phase: PhaseSongs})
	p.Add(Action{Type: ActionInsertPack, Key: "pack", Phase: PhasePacks})

	res := ApplyPlan(context.Background(), m, p, Options{Workers: 4}, zap.NewNop())

	assert.Equal(t, 4, res.Executed)
	assert.Equal(t, []string{"pack", "song", "orphan-song", "orphan-pack"}, m.keys())
}

func TestApplyPlan_BestEffort(t *testing.T) {
	boom := errors.New("disk full")
	m := &recordingMutator{failOn: map[string]error{"b": boom}}

	p := &Plan{}
	for _, k := range []string{"a", "b", "c"} {
		p.Add(Action{Type: ActionInsertSong, Key: k, Unit: "song:" + k, Phase: PhaseSongs})
	}

	res := ApplyPlan(context.Background(), m, p, Options{Workers: 2}, zap.NewNop())

	assert.Equal(t, 2, res.Executed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], boom)
	assert.True(t, IsWriteError(res.Errors[0], ActionInsertSong))
	assert.ElementsMatch(t, []string{"a", "c"}, m.keys())
}

func TestApplyPlan_UnitOrderPreserved(t *testing.T) {
	m := &recordingMutator{}
	p := &Plan{}
	p.Add(Action{Type: ActionDeleteSong, Key: "old", Unit: "song:new", Phase: PhaseSongs})
	p.Add(Action{Type: ActionInsertSong, Key: "new", Unit: "song:new", Phase: PhaseSongs})
	p.Add(Action{Type: ActionInsertMembership, Key: "new/p", Unit: "song:new", Phase: PhaseSongs})

	res := ApplyPlan(context.Background(), m, p, Options{Workers: 8}, zap.NewNop())

	assert.Equal(t, 3, res.Executed)
	assert.Equal(t, []string{"old", "new", "new/p"}, m.keys())
}

func TestApplyPlan_AtomicUnit(t *testing.T) {
	atomicPlan := func() *Plan {
		p := &Plan{}
		p.Add(Action{Type: ActionInsertSong, Key: "B", Unit: "song:B", Phase: PhaseSongs, Atomic: true})
		p.Add(Action{Type: ActionRehomeMemberships, Key: "A->B", Unit: "song:B", Phase: PhaseSongs, Atomic: true})
		p.Add(Action{Type: ActionDeleteSong, Key: "A", Unit: "song:B", Phase: PhaseSongs, Atomic: true})
		return p
	}

	t.Run("UnitMutatorCommits", func(t *testing.T) {
		m := &txMutator{}
		res := ApplyPlan(context.Background(), m, atomicPlan(), Options{}, zap.NewNop())
		assert.Equal(t, 3, res.Executed)
		assert.Equal(t, 1, m.units)
	})

	t.Run("UnitMutatorRollsBack", func(t *testing.T) {
		m := &txMutator{unitErr: errors.New("deadlock")}
		res := ApplyPlan(context.Background(), m, atomicPlan(), Options{}, zap.NewNop())
		assert.Equal(t, 0, res.Executed)
		assert.Equal(t, 3, res.Failed)
		assert.Empty(t, m.keys())
	})

	t.Run("PlainMutatorStopsAtFirstFailure", func(t *testing.T) {
		m := &recordingMutator{failOn: map[string]error{"A->B": errors.New("conflict")}}
		res := ApplyPlan(context.Background(), m, atomicPlan(), Options{}, zap.NewNop())
		assert.Equal(t, 1, res.Executed)
		assert.Equal(t, 2, res.Failed)
		assert.Equal(t, []string{"B"}, m.keys())
	})
}

func TestApplyPlan_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &recordingMutator{}
	p := &Plan{}
	p.Add(Action{Type: ActionInsertPack, Key: "p1"})
	p.Add(Action{Type: ActionInsertPack, Key: "p2"})

	res := ApplyPlan(ctx, m, p, Options{Workers: 2}, zap.NewNop())

	assert.Equal(t, 0, res.Executed)
	assert.Equal(t, 2, res.Failed)
	assert.ErrorIs(t, res.Errors[0], context.Canceled)
}

func TestApplyPlan_ManyUnitsConcurrently(t *testing.T) {
	m := &recordingMutator{}
	p := &Plan{}
	for i := 0; i < 200; i++ {
		k := string(rune('a'+i%26)) + string(rune('0'+i/26))
		p.Add(Action{Type: ActionUpdateSong, Key: k, Unit: "song:" + k, Phase: PhaseSongs})
	}

	res := ApplyPlan(context.Background(), m, p, Options{Workers: 16}, zap.NewNop())

	assert.Equal(t, 200, res.Executed)
	assert.Zero(t, res.Failed)
	assert.Len(t, m.keys(), 200)
}
