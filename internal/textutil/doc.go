// Package textutil provides small text helpers shared by the transcript
// filter and the corpus writer.
//
// Fingerprints are term-frequency vectors over lowercased letter/digit tokens,
// compared with cosine similarity to catch near-verbatim hallucinated phrases.
// SanitizeToken turns a voice name into a safe clip filename prefix.
package textutil
