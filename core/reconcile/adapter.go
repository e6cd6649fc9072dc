package reconcile

import "context"

// Mutator writes single planned actions to a store. Each call is independent:
// a failure must not leave other rows affected.
type Mutator interface {
	Apply(ctx context.Context, action Action) error
}

// UnitMutator is implemented by mutators that can apply a whole unit
// atomically, typically inside a store transaction. ApplyPlan uses it for
// units whose actions are marked Atomic.
type UnitMutator interface {
	Mutator
	ApplyUnit(ctx context.Context, actions []Action) error
}
