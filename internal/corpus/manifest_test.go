package corpus

import (
	"strings"
	"testing"
)

func TestFormatManifest(t *testing.T) {
	entries := []Entry{
		{ID: 1, File: "narrator_0001.wav", Text: "Hello there."},
		{ID: 2, File: "narrator_0002.wav", Text: "General Kenobi."},
	}
	got := FormatManifest(entries)
	want := "narrator_0001.wav|Hello there.\nnarrator_0002.wav|General Kenobi."
	if got != want {
		t.Fatalf("manifest mismatch:\n got %q\nwant %q", got, want)
	}
	if FormatManifest(nil) != "" {
		t.Fatal("empty corpus should render an empty manifest")
	}
}

func TestSplitManifest(t *testing.T) {
	if lines := splitManifest(""); lines != nil {
		t.Fatalf("empty manifest split = %q, want nil", lines)
	}
	lines := splitManifest(FormatManifest([]Entry{{File: "a_0001.wav", Text: "one"}, {File: "a_0002.wav", Text: "two"}}))
	if len(lines) != 2 || lines[1] != "a_0002.wav|two" {
		t.Fatalf("split = %q", lines)
	}
}

func TestParseManifestMarksMalformedRows(t *testing.T) {
	lines, err := ParseManifest(strings.NewReader("a_0001.wav|one\nbroken\na_0002.wav|two|three\n"))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0].File != "a_0001.wav" || lines[0].Text != "one" || lines[0].Malformed {
		t.Fatalf("line 1 = %+v", lines[0])
	}
	if !lines[1].Malformed || lines[1].Number != 2 {
		t.Fatalf("line 2 = %+v", lines[1])
	}
	if lines[2].Text != "two|three" {
		t.Fatalf("only the first delimiter splits: %+v", lines[2])
	}

	empty, err := ParseManifest(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty manifest = %v, %v", empty, err)
	}
}
