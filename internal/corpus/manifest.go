package corpus

import (
	"fmt"
	"io"
	"strings"
)

const (
	// ManifestName is the manifest file inside the dataset directory.
	ManifestName = "metadata.csv"
	// WavsDirName holds accepted clips inside the dataset directory.
	WavsDirName = "wavs"
	// PreviousDirName holds a replaced corpus until the forced build finishes.
	PreviousDirName = ".previous"

	manifestDelimiter = "|"
)

// Entry pairs an accepted clip with its transcript.
type Entry struct {
	ID        int
	File      string
	Text      string
	Recording string
	Seconds   float64
}

// FormatManifest renders entries as filename|text lines joined by newlines,
// with no header and no trailing newline.
func FormatManifest(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.File + manifestDelimiter + e.Text
	}
	return strings.Join(lines, "\n")
}

// ManifestLine is one manifest row. Number is 1-based. Lines without a
// delimiter have Malformed set and an empty File and Text.
type ManifestLine struct {
	Number    int
	File      string
	Text      string
	Malformed bool
}

// ParseManifest splits a manifest into rows. Only read failures are errors;
// malformed rows are returned so callers can report them in place.
func ParseManifest(r io.Reader) ([]ManifestLine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	raw := splitManifest(strings.TrimSuffix(string(data), "\n"))
	lines := make([]ManifestLine, len(raw))
	for i, row := range raw {
		line := ManifestLine{Number: i + 1}
		if file, text, ok := strings.Cut(row, manifestDelimiter); ok {
			line.File, line.Text = file, text
		} else {
			line.Malformed = true
		}
		lines[i] = line
	}
	return lines, nil
}

func splitManifest(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
