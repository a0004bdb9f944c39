// Package language normalizes configured voice language codes into the
// ISO 639-1 form speech-to-text backends accept.
package language
