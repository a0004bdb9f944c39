package filter

import (
	"testing"

	"voicecorpus/internal/config"
	"voicecorpus/internal/logging"
)

func defaultRules() Rules {
	return RulesFromConfig(config.Default().Filter)
}

func TestDefaultRules(t *testing.T) {
	f := New(defaultRules(), logging.NewNop())
	tests := []struct {
		text   string
		reason string
	}{
		{"Hello there, how are you?", ""},
		{"Subtitles by the Amara.org community", ReasonBoilerplatePrefix},
		{"Copyright 2021 Example Media", ReasonBoilerplatePrefix},
		{"Translated by volunteers", ReasonBoilerplatePrefix},
		{"Captioning provided by", ReasonBoilerplatePrefix},
		{"subtitles lowercase pass by default", ""},
		{"A", ReasonTooShort},
		{"", ReasonTooShort},
		{"Ok", ""},
		{"left | right", ReasonDelimiterCollision},
		{"♪ ♪", ""},
		{"Thank you.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v := f.Check(tt.text)
			if tt.reason == "" && !v.Accepted {
				t.Fatalf("expected accept, got %+v", v)
			}
			if tt.reason != "" && (v.Accepted || v.Reason != tt.reason) {
				t.Fatalf("expected reason %q, got %+v", tt.reason, v)
			}
		})
	}
}

func TestTooShortCountsRunes(t *testing.T) {
	f := New(Rules{MinChars: 2}, logging.NewNop())
	if v := f.Check("é"); v.Accepted {
		t.Fatal("single multi-byte rune should be too short")
	}
	if v := f.Check("日本"); !v.Accepted {
		t.Fatalf("two runes should pass, got %+v", v)
	}
}

func TestIgnoreCasePrefixes(t *testing.T) {
	rules := defaultRules()
	rules.IgnoreCase = true
	f := New(rules, logging.NewNop())
	if v := f.Check("SUBTITLES BY SOMEONE"); v.Reason != ReasonBoilerplatePrefix {
		t.Fatalf("expected folded prefix match, got %+v", v)
	}
	if v := f.Check("subtitle text"); v.Reason != ReasonBoilerplatePrefix {
		t.Fatalf("expected folded prefix match, got %+v", v)
	}
}

func TestOptionalRules(t *testing.T) {
	rules := defaultRules()
	rules.Phrases = []string{"Thanks for watching!", "Please subscribe"}
	rules.RejectMusicSymbols = true
	f := New(rules, logging.NewNop())

	if v := f.Check("thanks for watching"); v.Reason != ReasonKnownPhrase || v.Detail != "Thanks for watching!" {
		t.Fatalf("expected exact phrase match, got %+v", v)
	}
	if v := f.Check("Thanks for watching, everyone"); !v.Accepted {
		t.Fatalf("similarity disabled should accept variant, got %+v", v)
	}
	if v := f.Check("♪ ♫ ♪"); v.Reason != ReasonMusicSymbols {
		t.Fatalf("expected music symbols, got %+v", v)
	}

	rules.PhraseSimilarity = 0.8
	similar := New(rules, logging.NewNop())
	if v := similar.Check("Thanks for watching, everyone"); v.Reason != ReasonKnownPhrase {
		t.Fatalf("expected similarity match, got %+v", v)
	}
	if v := similar.Check("We were watching the river all day"); !v.Accepted {
		t.Fatalf("unrelated text should pass, got %+v", v)
	}
}

func TestStatsTally(t *testing.T) {
	f := New(defaultRules(), logging.NewNop())
	for _, text := range []string{"Hello world", "Subtitle one", "Subtitle two", "x", "fine text"} {
		f.Check(text)
	}
	stats := f.Stats()
	if stats.Accepted != 2 {
		t.Fatalf("accepted = %d, want 2", stats.Accepted)
	}
	if stats.Removed[ReasonBoilerplatePrefix] != 2 || stats.Removed[ReasonTooShort] != 1 {
		t.Fatalf("unexpected removals: %v", stats.Removed)
	}
	if stats.TotalRemoved() != 3 {
		t.Fatalf("total removed = %d", stats.TotalRemoved())
	}

	stats.Removed[ReasonTooShort] = 99
	if f.Stats().Removed[ReasonTooShort] != 1 {
		t.Fatal("Stats should return a copy")
	}
}
