package models

import (
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Song is an entry of the authoritative catalog.
// Two songs with the same MediaID are the same real-world song, whatever
// their IDs.
type Song struct {
	// ID is the stable surrogate identifier.
	ID string `json:"id" yaml:"id"`
	// MediaID is the natural key: the media-source id extracted from the locator.
	MediaID string `json:"media_id" yaml:"media_id"`
	Title   string `json:"title" yaml:"title"`
	Artist  string `json:"artist" yaml:"artist"`
	Year    int    `json:"year" yaml:"year"`
	// Offset is the playback start offset in seconds.
	Offset int `json:"offset" yaml:"offset"`
	// Label is the owning entity (record label); may be empty.
	Label string `json:"label" yaml:"label"`
	// Packs lists the IDs of the packs the song belongs to.
	Packs        []string  `json:"packs" yaml:"packs"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// Pack is a named collection of songs.
type Pack struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// Catalog is the authoritative song catalog.
type Catalog struct {
	Songs []Song `json:"songs" yaml:"songs"`
	Packs []Pack `json:"packs" yaml:"packs"`
}

// SameSong reports whether a and b describe the same real-world song.
func SameSong(a, b Song) bool {
	return a.MediaID == b.MediaID
}

// HasPack reports whether the song belongs to the pack with the given ID.
func (s Song) HasPack(packID string) bool {
	for _, id := range s.Packs {
		if id == packID {
			return true
		}
	}
	return false
}

// SameContent reports whether a and b carry identical descriptive fields and
// memberships. IDs and timestamps are ignored.
func SameContent(a, b Song) bool {
	if a.MediaID != b.MediaID || a.Title != b.Title || a.Artist != b.Artist ||
		a.Year != b.Year || a.Offset != b.Offset || a.Label != b.Label {
		return false
	}
	if len(a.Packs) != len(b.Packs) {
		return false
	}
	for _, id := range a.Packs {
		if !b.HasPack(id) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Songs: make([]Song, len(c.Songs)),
		Packs: make([]Pack, len(c.Packs)),
	}
	copy(out.Packs, c.Packs)
	for i, s := range c.Songs {
		s.Packs = append([]string(nil), s.Packs...)
		out.Songs[i] = s
	}
	return out
}

// Sort orders songs by a natural-order comparison of artist, title, year and
// label, and packs by name. Numbers inside strings compare by value and
// letters compare case-insensitively; ties fall back to the ID.
func (c *Catalog) Sort() {
	col := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)

	keys := make(map[string]string, len(c.Songs))
	for _, s := range c.Songs {
		keys[s.ID] = sortKey(s)
	}

	sort.SliceStable(c.Songs, func(i, j int) bool {
		if r := col.CompareString(keys[c.Songs[i].ID], keys[c.Songs[j].ID]); r != 0 {
			return r < 0
		}
		return c.Songs[i].ID < c.Songs[j].ID
	})
	sort.SliceStable(c.Packs, func(i, j int) bool {
		if r := col.CompareString(c.Packs[i].Name, c.Packs[j].Name); r != 0 {
			return r < 0
		}
		return c.Packs[i].ID < c.Packs[j].ID
	})
}

func sortKey(s Song) string {
	return s.Artist + " " + s.Title + " " + strconv.Itoa(s.Year) + " " + s.Label
}
