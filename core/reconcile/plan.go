package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// unit is a run of actions that touch the same entity and must be applied in
// order by one worker.
type unit struct {
	key     string
	atomic  bool
	actions []Action
}

// ApplyPlan executes the actions of a plan with best-effort semantics.
//
// Phases run in ascending order. Inside a phase, units are spread over
// opts.Workers workers; actions of one unit are applied sequentially. A failed
// write is logged, counted and collected in the result but never stops other
// units. Atomic units are applied through UnitMutator when the mutator
// supports it, otherwise they stop at their first failure.
func ApplyPlan(ctx context.Context, mutator Mutator, plan *Plan, opts Options, logger *zap.Logger) Result {
	var result Result

	if opts.DryRun || plan == nil || plan.Empty() {
		return result
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	record := func(executed int, failed []error) {
		mu.Lock()
		defer mu.Unlock()
		result.Executed += executed
		result.Failed += len(failed)
		result.Errors = append(result.Errors, failed...)
	}

	for _, units := range groupUnits(plan.Actions) {
		n := workers
		if n > len(units) {
			n = len(units)
		}

		unitsCh := make(chan unit, len(units))
		for _, u := range units {
			unitsCh <- u
		}
		close(unitsCh)

		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				for u := range unitsCh {
					executed, failed := applyUnit(ctx, mutator, u, logger)
					record(executed, failed)
				}
			}()
		}
		wg.Wait()
	}

	return result
}

// applyUnit applies one unit and returns the number of successful writes and
// one error per failed write.
func applyUnit(ctx context.Context, mutator Mutator, u unit, logger *zap.Logger) (int, []error) {
	if err := ctx.Err(); err != nil {
		return 0, failAll(u.actions, err, logger)
	}

	if u.atomic {
		if um, ok := mutator.(UnitMutator); ok {
			if err := um.ApplyUnit(ctx, u.actions); err != nil {
				return 0, failAll(u.actions, err, logger)
			}
			return len(u.actions), nil
		}
	}

	executed := 0
	var failed []error
	for i, action := range u.actions {
		if err := mutator.Apply(ctx, action); err != nil {
			if u.atomic {
				// Nothing after a failed step of an atomic unit may run
				return executed, append(failed, failAll(u.actions[i:], err, logger)...)
			}
			failed = append(failed, failAll([]Action{action}, err, logger)...)
			continue
		}
		executed++
	}
	return executed, failed
}

func failAll(actions []Action, err error, logger *zap.Logger) []error {
	out := make([]error, 0, len(actions))
	for _, a := range actions {
		logger.Warn("Reconcile write failed",
			zap.String("type", string(a.Type)),
			zap.String("key", a.Key),
			zap.Error(err),
		)
		out = append(out, &WriteError{Action: a, Err: err})
	}
	return out
}

// WriteError wraps the failure of a single planned action.
type WriteError struct {
	Action Action
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action.Type, e.Action.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err is a WriteError for an action of type t.
func IsWriteError(err error, t ActionType) bool {
	var we *WriteError
	return errors.As(err, &we) && we.Action.Type == t
}

// groupUnits buckets actions by phase (ascending) and, inside a phase, by unit
// in order of first appearance.
func groupUnits(actions []Action) [][]unit {
	byPhase := make(map[Phase][]unit)
	positions := make(map[Phase]map[string]int)

	for _, a := range actions {
		key := a.Unit
		if key == "" {
			key = string(a.Type) + ":" + a.Key
		}
		if positions[a.Phase] == nil {
			positions[a.Phase] = make(map[string]int)
		}
		pos, ok := positions[a.Phase][key]
		if !ok {
			pos = len(byPhase[a.Phase])
			positions[a.Phase][key] = pos
			byPhase[a.Phase] = append(byPhase[a.Phase], unit{key: key})
		}
		u := &byPhase[a.Phase][pos]
		u.actions = append(u.actions, a)
		u.atomic = u.atomic || a.Atomic
	}

	phases := make([]Phase, 0, len(byPhase))
	for p := range byPhase {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })

	out := make([][]unit, 0, len(phases))
	for _, p := range phases {
		out = append(out, byPhase[p])
	}
	return out
}
