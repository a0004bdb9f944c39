package textutil

import (
	"math"
	"testing"
)

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
	}{
		{"both nil", nil, nil},
		{"a nil", nil, NewFingerprint("hello world")},
		{"b nil", NewFingerprint("hello world"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("CosineSimilarity() = %v, want 0", got)
			}
		})
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	a := NewFingerprint("Thanks for watching!")
	b := NewFingerprint("thanks for WATCHING")
	if got := CosineSimilarity(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1", got)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	a := NewFingerprint("apple banana cherry")
	b := NewFingerprint("dog elephant frog")
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity(disjoint) = %v, want 0", got)
	}
}

func TestCosineSimilarityPartial(t *testing.T) {
	a := NewFingerprint("thanks for watching")
	b := NewFingerprint("thanks for listening")
	got := CosineSimilarity(a, b)
	want := 2.0 / 3.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("CosineSimilarity(partial) = %v, want %v", got, want)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Merci d'avoir regardé, à bientôt!")
	want := []string{"merci", "avoir", "regardé", "bientôt"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if fp := NewFingerprint("a . !"); fp != nil {
		t.Fatalf("expected nil fingerprint for text without tokens, got %d tokens", len(fp.tokens))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"my_custom_voice", "my_custom_voice"},
		{"Jane Doe", "jane_doe"},
		{"  narrator-2 ", "narrator-2"},
		{"../../etc", "etc"},
		{"", "unknown"},
		{"!!!", "unknown"},
		{"Zoë  Saldaña", "zoe_saldana"},
		{"voice (take 2)", "voice_take_2"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeToken(tt.input); got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  hello \n\t world  "); got != "hello world" {
		t.Fatalf("CollapseSpaces = %q", got)
	}
}
