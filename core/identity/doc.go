// Package identity provides a dual-key index that maps several independent key
// spaces onto one shared value.
//
// Catalog entries are known both by a stable surrogate ID and by a natural key
// taken from external data (a media-source id for songs, the name for packs).
// The importer and the sync engine both need to find an entry by either key, so
// each value is registered once under all of its keys.
//
// # Multi-registration
//
// Inserting a value under a key that is already bound to a different value does
// not overwrite the old binding. Both values stay reachable through GetAll and
// the key is reported back as a Collision so the caller can decide what the
// duplicate means (a conflict to resolve, a corrupt catalog, an accidental
// duplicate in a store).
//
// # Usage
//
//	idx := identity.New[*models.Song]()
//	if c := idx.Insert(song, identity.ByID(song.ID), identity.ByNaturalKey(song.MediaID)); len(c) > 0 {
//	    // handle duplicates
//	}
//	s, ok := idx.Get(identity.ByNaturalKey("dQw4w9WgXcQ"))
package identity
