// Package reconcile provides the generic plan/apply machinery used to bring a
// mutable store in line with an authoritative source.
//
// A reconciler first computes a Plan: an ordered list of Actions, each naming
// the row it writes, the unit (entity) it belongs to and the phase it runs in.
// ApplyPlan then hands the actions to a store-specific Mutator.
//
// # Best-effort application
//
// Store write failures are not fatal. Every failed action is logged, counted in
// Result.Failed and kept in Result.Errors as a *WriteError; the remaining
// actions still run. Callers surface the aggregate count instead of aborting.
//
// # Ordering and concurrency
//
//   - Phases run one after the other (packs before songs, orphans last).
//   - Inside a phase, units are distributed over a bounded worker pool.
//   - Actions of one unit run sequentially on one worker, so writes touching the
//     same entity are never reordered or interleaved.
//   - Units flagged Atomic are applied through UnitMutator (a store transaction)
//     when available.
//
// # Usage Example
//
//	plan := &reconcile.Plan{}
//	plan.Add(reconcile.Action{Type: reconcile.ActionInsertPack, Key: id, Unit: "pack:" + id, Payload: row})
//	result := reconcile.ApplyPlan(ctx, mutator, plan, reconcile.Options{Workers: 4}, logger)
//	if result.Failed > 0 {
//	    logger.Warn("Some rows were not reconciled", zap.Int("failed", result.Failed))
//	}
package reconcile
