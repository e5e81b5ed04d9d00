// Package repository defines the data access interface for captured sessions.
//
// A session groups evaluation cycles; each captured cycle is stored as a
// sample holding its score, status, counts and the detections it was scored
// from. The sqlite subpackage provides the implementation.
//
// # SQLite Implementation
//
// The sqlite implementation uses the pure Go modernc.org/sqlite driver with
// WAL mode. The schema is migrated on startup. Tests run against in-memory
// databases.
package repository
