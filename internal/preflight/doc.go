// Package preflight provides readiness checks for the filesystem paths and
// transcription services a corpus build depends on.
//
// The build command runs RunAll before touching the dataset and refuses to
// start when a check fails. The check command prints every result.
package preflight
