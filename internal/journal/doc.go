// Package journal persists run history in SQLite.
//
// Every run records its root, review directory, and summary counts; every
// processed file records its outcome, sidecar kind, and any error. The
// history command and the end-of-run summary read from here.
//
// The database is an operational log, not a work queue: rows are inserted
// once and never updated after the run finishes. Schema changes bump the
// version in schema.go; users delete the database to adopt the new schema.
package journal
