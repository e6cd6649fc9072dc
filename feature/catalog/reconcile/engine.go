package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"song-catalog/core/reconcile"
	"song-catalog/feature/catalog/models"
)

// Engine brings a store in line with the authoritative catalog.
type Engine struct {
	store  Store
	avail  Availability
	logger *zap.Logger
}

// NewEngine creates a sync engine. A nil avail reports every artifact missing.
func NewEngine(store Store, avail Availability, logger *zap.Logger) *Engine {
	if avail == nil {
		avail = Unavailable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, avail: avail, logger: logger}
}

// Report is the outcome of one sync pass.
type Report struct {
	Plan   *reconcile.Plan
	Result reconcile.Result
	DryRun bool
}

// Sync reads the store, plans the writes needed to match c and applies them.
// Write failures are counted in the report, not returned.
func (e *Engine) Sync(ctx context.Context, c *models.Catalog, opts reconcile.Options) (*Report, error) {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	plan, err := e.Plan(ctx, c, snap)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Sync plan ready",
		zap.Int("actions", plan.Summary.Total),
		zap.Int("duplicates", plan.Summary.Duplicates),
		zap.Bool("dry_run", opts.DryRun),
	)

	result := reconcile.ApplyPlan(ctx, NewMutator(e.store), plan, opts, e.logger)
	if !opts.DryRun {
		e.logger.Info("Sync finished",
			zap.Int("executed", result.Executed),
			zap.Int("failed", result.Failed),
		)
	}

	return &Report{Plan: plan, Result: result, DryRun: opts.DryRun}, nil
}

// Plan computes the minimal set of writes that brings snap in line with c.
// Custom rows never appear in the plan.
func (e *Engine) Plan(ctx context.Context, c *models.Catalog, snap *models.Snapshot) (*reconcile.Plan, error) {
	catalog, err := c.Index()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	p := &planner{
		ctx:      ctx,
		engine:   e,
		catalog:  catalog,
		store:    snap.Index(),
		plan:     &reconcile.Plan{},
		consumed: make(map[string]bool),
	}

	p.packs(c.Packs, snap.Packs)
	for i := range c.Songs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.song(c.Songs[i])
	}
	p.orphanSongs(snap.Songs)

	return p.plan, nil
}

type planner struct {
	ctx     context.Context
	engine  *Engine
	catalog *models.CatalogIndex
	store   *models.SnapshotIndex
	plan    *reconcile.Plan
	// consumed holds store song ids replaced as accidental duplicates.
	consumed map[string]bool
}

func packUnit(id string) string { return "pack:" + id }
func songUnit(id string) string { return "song:" + id }

func (p *planner) packs(catalogPacks []models.Pack, storePacks []models.PackRow) {
	for _, pack := range catalogPacks {
		row := models.PackRow{ID: pack.ID, Name: pack.Name, LastModified: pack.LastModified, Origin: models.OriginCatalog}

		existing, ok := p.store.Pack(pack.ID)
		switch {
		case !ok:
			p.add(reconcile.ActionInsertPack, pack.ID, packUnit(pack.ID), reconcile.PhasePacks, false, "missing from store", row)
		case existing.Mutable() && existing.LastModified.Before(pack.LastModified):
			p.add(reconcile.ActionUpdatePack, pack.ID, packUnit(pack.ID), reconcile.PhasePacks, false, "stale", row)
		}
	}

	for _, row := range storePacks {
		if !row.Mutable() {
			continue
		}
		if _, ok := p.catalog.PackByID(row.ID); !ok {
			p.add(reconcile.ActionDeletePack, row.ID, packUnit(row.ID), reconcile.PhaseOrphanPacks, false, "absent from catalog", row)
		}
	}
}

func (p *planner) song(song models.Song) {
	if existing, ok := p.store.Song(song.ID); ok {
		p.existingSong(song, existing)
		return
	}
	p.newSong(song)
}

// newSong inserts a catalog song missing from the store, replacing managed
// rows that hold the same media id under another id.
func (p *planner) newSong(song models.Song) {
	unit := songUnit(song.ID)

	var duplicates []*models.SongRow
	for _, row := range p.store.SongsByMediaID(song.MediaID) {
		if row.ID == song.ID || !row.State.Mutable() || p.consumed[row.ID] {
			continue
		}
		if _, inCatalog := p.catalog.SongByID(row.ID); inCatalog {
			continue
		}
		duplicates = append(duplicates, row)
	}
	atomic := len(duplicates) > 0

	tombstone := models.Live
	carried := make(map[string]bool)
	for _, dup := range duplicates {
		if dup.State.Marked() {
			tombstone = models.MarkedForDeletion
		}
		for _, m := range p.store.Memberships(dup.ID) {
			carried[m.PackID] = true
		}
	}

	row := models.NewSongRow(song, p.available(song.MediaID), tombstone)
	p.add(reconcile.ActionInsertSong, song.ID, unit, reconcile.PhaseSongs, atomic, "missing from store", row)

	for _, dup := range duplicates {
		p.consumed[dup.ID] = true
		p.plan.Summary.Duplicates++
		reason := "accidental duplicate of " + song.ID
		p.add(reconcile.ActionRehomeMemberships, dup.ID, unit, reconcile.PhaseSongs, atomic, reason, Rehome{From: dup.ID, To: song.ID})
		p.add(reconcile.ActionDeleteSong, dup.ID, unit, reconcile.PhaseSongs, atomic, reason, *dup)
	}

	for _, packID := range song.Packs {
		if carried[packID] {
			continue
		}
		m := models.MembershipRow{SongID: song.ID, PackID: packID}
		p.add(reconcile.ActionInsertMembership, song.ID+"/"+packID, unit, reconcile.PhaseSongs, atomic, "catalog membership", m)
	}
}

// existingSong refreshes a stale managed row and its memberships.
func (p *planner) existingSong(song models.Song, existing *models.SongRow) {
	if !existing.State.Mutable() {
		return
	}
	unit := songUnit(song.ID)

	if existing.LastModified.Before(song.LastModified) {
		row := models.NewSongRow(song, false, existing.State.Tombstone)
		p.add(reconcile.ActionUpdateSong, song.ID, unit, reconcile.PhaseSongs, false, "stale", row)
	}

	current := make(map[string]bool)
	for _, m := range p.store.Memberships(song.ID) {
		current[m.PackID] = true
	}
	for _, packID := range song.Packs {
		if current[packID] {
			continue
		}
		m := models.MembershipRow{SongID: song.ID, PackID: packID}
		p.add(reconcile.ActionInsertMembership, song.ID+"/"+packID, unit, reconcile.PhaseSongs, false, "catalog membership", m)
	}
	for _, m := range p.store.Memberships(song.ID) {
		if !m.State.Mutable() || song.HasPack(m.PackID) {
			continue
		}
		p.add(reconcile.ActionDeleteMembership, song.ID+"/"+m.PackID, unit, reconcile.PhaseSongs, false, "not in catalog membership list", m)
	}
}

func (p *planner) orphanSongs(rows []models.SongRow) {
	for _, row := range rows {
		if !row.State.Mutable() || p.consumed[row.ID] {
			continue
		}
		if _, ok := p.catalog.SongByID(row.ID); ok {
			continue
		}
		p.add(reconcile.ActionDeleteSong, row.ID, songUnit(row.ID), reconcile.PhaseOrphanSongs, false, "absent from catalog", row)
	}
}

func (p *planner) available(mediaID string) bool {
	ok, err := p.engine.avail.Has(p.ctx, mediaID)
	if err != nil {
		p.engine.logger.Warn("Artifact check failed",
			zap.String("media_id", mediaID),
			zap.Error(err),
		)
		return false
	}
	return ok
}

func (p *planner) add(t reconcile.ActionType, key, unit string, phase reconcile.Phase, atomic bool, reason string, payload any) {
	p.plan.Add(reconcile.Action{
		Type:    t,
		Key:     key,
		Unit:    unit,
		Phase:   phase,
		Atomic:  atomic,
		Reason:  reason,
		Payload: payload,
	})
}
