// Package whisperserver is a client for the whisper.cpp HTTP server. Clips are
// uploaded as multipart forms to /inference and the JSON text field is
// returned.
package whisperserver
