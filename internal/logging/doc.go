// Package logging assembles structured slog loggers and formatting helpers used
// across voicecorpus commands and pipeline stages.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code tags log lines with the run
// ID, stage, and recording it is working on. NewNop provides a discard logger
// for tests and wiring code that cannot fail.
package logging
