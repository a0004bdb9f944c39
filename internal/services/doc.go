// Package services defines shared utilities consumed by the pipeline stages
// and the external transcription integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and recording names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     recoverable (skip the clip or recording) or fatal (abort the run).
//
// The subpackages hold the transcription backends. Each one exposes a
// Transcribe(ctx, audioPath, language) method so the pipeline can swap them
// without knowing how the text is produced.
package services
