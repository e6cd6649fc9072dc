package importer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"song-catalog/core/identity"
	"song-catalog/feature/catalog/models"
)

// Options configures a Merger.
type Options struct {
	// Prior is the previous authoritative catalog; nil means none.
	Prior *models.Catalog
	// Extractor defaults to YouTubeKey.
	Extractor KeyExtractor
	// Resolver defaults to CancelOnConflict.
	Resolver Resolver
	// NewID defaults to random UUIDs.
	NewID func() string
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Stats counts what a merge did.
type Stats struct {
	Records   int
	Skipped   int
	Conflicts int
	Songs     int
	Packs     int
}

// Merger folds raw records into a catalog, one record at a time.
type Merger struct {
	opts  Options
	prior *models.CatalogIndex
	fold  cases.Caser

	songs     *identity.Index[*models.Song]
	packs     *identity.Index[*models.Pack]
	songOrder []*models.Song
	packOrder []*models.Pack

	stats Stats
}

// NewMerger returns a Merger seeded with opts.Prior.
func NewMerger(opts Options) (*Merger, error) {
	if opts.Extractor == nil {
		opts.Extractor = YouTubeKey
	}
	if opts.Resolver == nil {
		opts.Resolver = CancelOnConflict
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	m := &Merger{
		opts:  opts,
		fold:  cases.Fold(),
		songs: identity.New[*models.Song](),
		packs: identity.New[*models.Pack](),
	}

	if opts.Prior != nil {
		idx, err := opts.Prior.Index()
		if err != nil {
			return nil, fmt.Errorf("prior catalog: %w", err)
		}
		m.prior = idx
	}
	return m, nil
}

// Add merges one record.
func (m *Merger) Add(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.stats.Records++

	if rec.Locator == "" || rec.Placeholder() {
		m.stats.Skipped++
		m.opts.Logger.Debug("Skipping record", zap.Int("line", rec.Line))
		return nil
	}

	mediaID, ok := m.opts.Extractor.Extract(rec.Locator)
	if !ok {
		return fmt.Errorf("line %d: %w: %q", rec.Line, ErrInvalidLocator, rec.Locator)
	}

	pack := m.pack(rec.Pack)

	song, found := m.songs.Get(identity.ByNaturalKey(mediaID))
	if !found {
		song = &models.Song{
			ID:      m.songID(mediaID),
			MediaID: mediaID,
			Title:   rec.Title,
			Artist:  rec.Artist,
			Year:    rec.Year,
			Offset:  rec.Offset,
			Label:   rec.Label,
			Packs:   []string{},
		}
		m.songs.Insert(song, identity.ByID(song.ID), identity.ByNaturalKey(mediaID))
		m.songOrder = append(m.songOrder, song)
	} else if err := m.merge(ctx, song, rec); err != nil {
		return err
	}

	if pack != nil && !song.HasPack(pack.ID) {
		song.Packs = append(song.Packs, pack.ID)
	}
	return nil
}

// merge reconciles a further record of an already merged song.
func (m *Merger) merge(ctx context.Context, song *models.Song, rec Record) error {
	if song.Label == "" {
		song.Label = rec.Label
	}

	var choices []Choice
	add := func(f Field, existing, incoming string, concat bool) {
		ch := Choice{Field: f, Existing: existing, Incoming: incoming, Options: []string{existing, incoming}}
		if concat {
			ch.Options = append(ch.Options, existing+ConcatSeparator+incoming)
		}
		choices = append(choices, ch)
	}

	if !m.equalFold(song.Title, rec.Title) {
		add(FieldTitle, song.Title, rec.Title, false)
	}
	if !m.equalFold(song.Artist, rec.Artist) {
		add(FieldArtist, song.Artist, rec.Artist, true)
	}
	if song.Offset != rec.Offset {
		add(FieldOffset, strconv.Itoa(song.Offset), strconv.Itoa(rec.Offset), false)
	}
	if song.Year != rec.Year {
		add(FieldYear, strconv.Itoa(song.Year), strconv.Itoa(rec.Year), false)
	}
	if rec.Label != "" && !m.equalFold(song.Label, rec.Label) {
		add(FieldLabel, song.Label, rec.Label, true)
	}

	if len(choices) == 0 {
		return nil
	}
	m.stats.Conflicts++

	conflict := Conflict{SongID: song.ID, MediaID: song.MediaID, Record: rec, Choices: choices}
	d, err := m.opts.Resolver.Resolve(ctx, conflict)
	if err != nil {
		return fmt.Errorf("line %d: resolve conflict: %w", rec.Line, err)
	}
	if d.Cancel {
		return fmt.Errorf("line %d: %w", rec.Line, ErrCancelled)
	}

	if err := apply(song, d); err != nil {
		return fmt.Errorf("line %d: %w", rec.Line, err)
	}
	m.opts.Logger.Info("Resolved conflict",
		zap.String("media_id", song.MediaID),
		zap.Int("line", rec.Line),
		zap.Int("fields", len(choices)),
	)
	return nil
}

func apply(song *models.Song, d Decision) error {
	for f, v := range d.Values {
		switch f {
		case FieldTitle:
			song.Title = v
		case FieldArtist:
			song.Artist = v
		case FieldLabel:
			song.Label = v
		case FieldYear, FieldOffset:
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("resolved %s %q is not a number", f, v)
			}
			if f == FieldYear {
				song.Year = n
			} else {
				song.Offset = n
			}
		default:
			return fmt.Errorf("resolved unknown field %q", f)
		}
	}
	return nil
}

func (m *Merger) equalFold(a, b string) bool {
	return m.fold.String(a) == m.fold.String(b)
}

// songID reuses the prior catalog id of the media id, if any.
func (m *Merger) songID(mediaID string) string {
	if m.prior != nil {
		if s, ok := m.prior.SongByMediaID(mediaID); ok {
			return s.ID
		}
	}
	return m.opts.NewID()
}

// pack resolves a pack by name: in progress, then prior catalog, then new.
func (m *Merger) pack(name string) *models.Pack {
	if name == "" {
		return nil
	}
	if p, ok := m.packs.Get(identity.ByNaturalKey(name)); ok {
		return p
	}

	p := &models.Pack{Name: name}
	if m.prior != nil {
		if prev, ok := m.prior.PackByName(name); ok {
			p.ID = prev.ID
		}
	}
	if p.ID == "" {
		p.ID = m.opts.NewID()
	}
	m.packs.Insert(p, identity.ByID(p.ID), identity.ByNaturalKey(name))
	m.packOrder = append(m.packOrder, p)
	return p
}

// Stats returns the counters so far.
func (m *Merger) Stats() Stats {
	s := m.stats
	s.Songs = len(m.songOrder)
	s.Packs = len(m.packOrder)
	return s
}

// Catalog returns the merged catalog, sorted. Songs and packs identical to
// their prior version keep its timestamp; everything else is stamped with the
// merge time, truncated to the second.
func (m *Merger) Catalog() *models.Catalog {
	now := m.opts.Now().Truncate(time.Second)
	c := &models.Catalog{
		Songs: make([]models.Song, 0, len(m.songOrder)),
		Packs: make([]models.Pack, 0, len(m.packOrder)),
	}

	for _, p := range m.packOrder {
		out := *p
		out.LastModified = now
		if m.prior != nil {
			if prev, ok := m.prior.PackByID(p.ID); ok && prev.Name == p.Name {
				out.LastModified = prev.LastModified
			}
		}
		c.Packs = append(c.Packs, out)
	}

	for _, s := range m.songOrder {
		out := *s
		out.Packs = append([]string{}, s.Packs...)
		out.LastModified = now
		if m.prior != nil {
			if prev, ok := m.prior.SongByMediaID(s.MediaID); ok && prev.ID == s.ID && models.SameContent(*prev, out) {
				out.LastModified = prev.LastModified
			}
		}
		c.Songs = append(c.Songs, out)
	}

	c.Sort()
	return c
}
