// Package importer folds raw semicolon-delimited song records into an
// authoritative catalog.
//
// Records are deduplicated by media id, the natural key extracted from each
// record's locator. A song listed in several packs appears once with every
// pack in its membership list. When two records of the same song disagree
// on a field, a Resolver decides which value wins or cancels the import.
//
// Seeding the merger with the previous catalog keeps song and pack ids stable
// across rebuilds, and keeps the timestamps of songs whose content did not
// change.
package importer
