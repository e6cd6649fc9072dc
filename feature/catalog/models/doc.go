// Package models defines the song catalog, the persisted store rows and the
// catalog file format.
//
// A Catalog is the authoritative list of songs and packs produced by the
// importer. Store rows add an explicit RowState that separates rows derived
// from the catalog from rows created directly in the store (custom), and live
// rows from rows pending removal (marked for deletion).
package models
