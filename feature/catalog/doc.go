// Package catalog wires the song catalog together: configuration, the
// import of raw records into the catalog file, loading the authoritative
// catalog and syncing it into the store.
package catalog
