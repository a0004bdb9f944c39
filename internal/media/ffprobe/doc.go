// Package ffprobe provides a typed wrapper around ffprobe JSON output for the
// audio streams of source recordings.
//
// Inspect runs ffprobe restricted to audio streams; helper methods expose the
// primary stream sample rate, channel count, duration, and bitrate used by
// scan output.
package ffprobe
