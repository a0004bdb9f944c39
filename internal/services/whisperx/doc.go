// Package whisperx transcribes clips by running WhisperX through uvx.
//
// Each call writes WhisperX JSON output into a scratch directory next to the
// clip, joins the segment texts, and removes the scratch directory. Model,
// device and VAD method come from Config. Tests replace the process launch
// with WithCommandRunner.
package whisperx
