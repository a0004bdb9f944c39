// Package pipeline drives a corpus build: recordings are decoded, split into
// voiced segments, validated, transcribed, filtered and committed to the
// dataset in source order.
//
// Runner holds the per-run state and executes the stages over an ordered list
// of recordings. Transcription fans out across a bounded worker group per
// recording while clip numbers are still assigned in segment order, so the
// resulting corpus does not depend on the worker count. Build wraps a Runner
// with the run lock, the journal, staging cleanup and metrics.
package pipeline
