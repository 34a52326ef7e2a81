// Package database provides SQLite connectivity for the IoTzy bridge.
//
// The bridge uses a single embedded SQLite file for durable records that
// outlive the process: the actuation/event log. Runtime settings are not
// stored here; they live in a small JSON document owned by the settings
// store.
//
// # Features
//
//   - WAL mode for concurrent reads during writes
//   - Embedded schema migrations (go:embed, applied at startup)
//   - Health check for startup verification
//   - Single-writer connection pool matching SQLite's locking model
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: "./data/iotzy.db", WALMode: true, BusyTimeout: 5})
//	if err != nil { ... }
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil { ... }
package database
