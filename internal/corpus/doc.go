// Package corpus owns the on-disk dataset: contiguous clip numbering, staged
// clip promotion into wavs/, the pipe-delimited metadata.csv manifest, and
// verification of a finished corpus.
//
// A Writer stages every clip under a random name first. Only clips that pass
// the hallucination filter claim a sequence ID and are renamed to
// <voice>_NNNN.wav, so rejected clips never leave a gap. The manifest is
// written once, atomically, when the run finishes.
package corpus
