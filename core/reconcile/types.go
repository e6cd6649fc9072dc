package reconcile

import "sort"

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionInsertPack inserts a catalog pack missing from the store.
	ActionInsertPack ActionType = "insert_pack"
	// ActionUpdatePack overwrites a stale pack row.
	ActionUpdatePack ActionType = "update_pack"
	// ActionDeletePack deletes a managed pack absent from the catalog.
	ActionDeletePack ActionType = "delete_pack"
	// ActionInsertSong inserts a catalog song missing from the store.
	ActionInsertSong ActionType = "insert_song"
	// ActionUpdateSong overwrites a stale song row.
	ActionUpdateSong ActionType = "update_song"
	// ActionDeleteSong deletes a managed song row.
	ActionDeleteSong ActionType = "delete_song"
	// ActionRehomeMemberships moves the memberships of a replaced duplicate to its new id.
	ActionRehomeMemberships ActionType = "rehome_memberships"
	// ActionInsertMembership inserts a song/pack membership.
	ActionInsertMembership ActionType = "insert_membership"
	// ActionDeleteMembership deletes a managed membership.
	ActionDeleteMembership ActionType = "delete_membership"
)

// Phase orders groups of actions. All actions of a phase finish before the
// next phase starts.
type Phase int

const (
	PhasePacks Phase = iota
	PhaseSongs
	PhaseOrphanSongs
	PhaseOrphanPacks
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key identifies the row the action writes to.
	Key string `json:"key"`

	// Unit groups actions that touch the same entity. Actions of one unit run
	// in order on a single worker.
	Unit string `json:"unit"`

	// Phase is the ordering bucket of the action.
	Phase Phase `json:"phase"`

	// Atomic marks a unit whose actions must all succeed or all fail.
	Atomic bool `json:"atomic,omitempty"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// Payload carries the row to write. Its type depends on Type.
	Payload any `json:"-"`
}

// Plan contains the ordered mutations for one reconciliation pass.
type Plan struct {
	// Actions contains planned mutation operations.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`
}

// Summary provides aggregate statistics for a plan.
type Summary struct {
	// Total is the number of planned actions.
	Total int `json:"total"`

	// ByType counts planned actions per type.
	ByType map[ActionType]int `json:"by_type"`

	// Duplicates counts accidental duplicates scheduled for replacement.
	Duplicates int `json:"duplicates"`
}

// Add appends an action and updates the summary.
func (p *Plan) Add(a Action) {
	p.Actions = append(p.Actions, a)
	p.Summary.Total++
	if p.Summary.ByType == nil {
		p.Summary.ByType = make(map[ActionType]int)
	}
	p.Summary.ByType[a.Type]++
}

// Empty reports whether the plan contains no writes.
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}

// Types returns the action types present in the plan, sorted by name.
func (s Summary) Types() []ActionType {
	types := make([]ActionType, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Options controls how a plan is applied.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// Workers is the number of units applied concurrently. Values below one
	// mean one.
	Workers int
}

// Result reports the outcome of applying a plan.
type Result struct {
	// Executed counts actions that were written successfully.
	Executed int `json:"executed"`

	// Failed counts actions that could not be written.
	Failed int `json:"failed"`

	// Errors holds the individual write failures.
	Errors []error `json:"-"`
}
