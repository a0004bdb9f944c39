// Package main hosts the voicecorpus CLI entrypoint and command graph.
//
// The Cobra command tree builds a TTS training corpus from a directory of
// recordings and offers the supporting tools around it: scanning inputs,
// verifying an existing dataset, checking external dependencies, and reading
// the run journal. Configuration is resolved once per invocation and shared by
// every subcommand through commandContext.
//
// Keep this package lean: behaviour lives in the internal packages and is
// surfaced here through commands and flags.
package main
