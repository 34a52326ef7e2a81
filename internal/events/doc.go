// Package events records sensing transitions (lamp commands, presence
// flips) in SQLite so they can be reviewed after the fact via the HTTP
// API. Writes are best-effort: the sensing loop logs and carries on if
// an insert fails.
package events
