// Package journal records build runs and per-segment decisions in SQLite.
//
// Every build opens a run, appends one decision row per segment (accepted,
// or rejected with the validator, transcriber or filter reason), and closes
// the run as completed, failed or interrupted. The journal is an audit trail
// for `voicecorpus runs`; the corpus on disk never depends on it.
//
// Schema changes bump schemaVersion in schema.go; users delete journal.db to
// adopt the new schema.
package journal
