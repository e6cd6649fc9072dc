// Package store implements the persisted song catalog.
//
// GormStore writes the songs, packs and song_packs tables through gorm and
// works with MySQL and SQLite. MemoryStore keeps the same rows in memory.
// Both refuse to update or delete custom rows.
package store
