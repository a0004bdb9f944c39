// Package filter rejects transcripts that are artifacts of the speech-to-text
// engine rather than speech: boilerplate credit lines, near-empty text, and
// text that would corrupt the pipe-delimited manifest.
//
// Optional rules catch known hallucination phrases (exactly, or by token
// similarity) and music-symbol-only output.
package filter
