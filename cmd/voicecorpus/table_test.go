package main

import (
	"strings"
	"testing"
)

func TestRenderTableFooterKeepsCase(t *testing.T) {
	out := renderTable(
		[]string{"File", "Size"},
		[][]string{{"a.wav", "62 KiB"}, {"b.wav", "63 KiB"}},
		[]columnAlignment{alignLeft, alignRight},
		"2 recordings", "125 KiB",
	)
	for _, want := range []string{"2 recordings", "125 KiB", "a.wav"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "RECORDINGS") || strings.Contains(out, "KIB") {
		t.Fatalf("footer was upper-cased:\n%s", out)
	}
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
