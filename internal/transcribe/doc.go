// Package transcribe defines the clip Transcriber interface and selects a
// backend from configuration.
//
// Backends live under internal/services: whisperserver (whisper.cpp HTTP),
// openai (OpenAI compatible API), command (external program with JSON
// output) and whisperx (uvx whisperx). Each clip gets exactly one attempt
// bounded by [transcription] timeout_seconds; the returned text is NFC
// normalized and flattened to a single line.
package transcribe
