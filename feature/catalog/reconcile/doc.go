// Package reconcile keeps the persisted song store consistent with the
// authoritative catalog.
//
// A sync reads a snapshot of the store, plans the minimal set of row writes
// and applies them best-effort through core/reconcile. Rows created directly
// in the store (custom rows) are never updated or deleted. A store row is
// overwritten only when its timestamp is strictly older than the catalog's.
//
// When the store holds a song under a stale id (same media id, different
// id), the row is replaced in one transaction: the catalog song is inserted,
// the old memberships move to it with their flags, and the old row is
// deleted.
package reconcile
