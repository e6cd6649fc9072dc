// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL connections for the
// persisted song store, and SQLite connections for local runs and tests.
//
// # Connect
//
// The Connect function establishes a connection based on Config.Driver. SQLite
// connections are limited to a single open connection so that an in-memory
// database is shared by every query and concurrent writers are serialized.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for both dialects. The song
// store uses it to verify that the tables expose the minimum shape the sync
// engine writes to before any reconciliation starts.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "songs")
package database
