// Package config loads, normalizes, and validates voicecorpus configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. The Config type centralizes every knob the pipeline and CLI
// need so input, dataset, and state directories plus transcription backend
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical enum values, and clear validation errors.
package config
