package filter

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"voicecorpus/internal/config"
	"voicecorpus/internal/logging"
	"voicecorpus/internal/textutil"
)

// Rejection reasons reported by Filter.
const (
	ReasonBoilerplatePrefix  = "boilerplate_prefix"
	ReasonTooShort           = "too_short"
	ReasonDelimiterCollision = "delimiter_collision"
	ReasonKnownPhrase        = "known_phrase"
	ReasonMusicSymbols       = "music_symbols"
)

// ManifestDelimiter separates the filename and text columns of the manifest.
const ManifestDelimiter = "|"

// Rules configures hallucination rejection.
type Rules struct {
	Prefixes           []string
	MinChars           int
	IgnoreCase         bool
	Phrases            []string
	PhraseSimilarity   float64
	RejectMusicSymbols bool
}

// RulesFromConfig maps the [filter] config section onto Rules.
func RulesFromConfig(cfg config.Filter) Rules {
	return Rules{
		Prefixes:           append([]string(nil), cfg.Prefixes...),
		MinChars:           cfg.MinChars,
		IgnoreCase:         cfg.IgnoreCase,
		Phrases:            append([]string(nil), cfg.Phrases...),
		PhraseSimilarity:   cfg.PhraseSimilarity,
		RejectMusicSymbols: cfg.RejectMusicSymbols,
	}
}

// Verdict is the outcome of checking one transcript.
type Verdict struct {
	Accepted bool
	Reason   string
	Detail   string
}

type phrase struct {
	text        string
	normalized  string
	fingerprint *textutil.Fingerprint
}

// Filter rejects transcripts that look like transcription artifacts rather
// than speech. A Filter keeps running counts and is not safe for concurrent
// use; the pipeline calls it only from its commit loop.
type Filter struct {
	rules    Rules
	fold     cases.Caser
	prefixes []string
	phrases  []phrase
	logger   *slog.Logger

	accepted int
	removed  map[string]int
}

// New builds a Filter from rules.
func New(rules Rules, logger *slog.Logger) *Filter {
	f := &Filter{
		rules:   rules,
		fold:    cases.Fold(),
		logger:  logging.NewComponentLogger(logger, "filter"),
		removed: make(map[string]int),
	}
	for _, p := range rules.Prefixes {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if rules.IgnoreCase {
			p = f.fold.String(p)
		}
		f.prefixes = append(f.prefixes, p)
	}
	for _, p := range rules.Phrases {
		normalized := f.normalizePhrase(p)
		if normalized == "" {
			continue
		}
		f.phrases = append(f.phrases, phrase{
			text:        p,
			normalized:  normalized,
			fingerprint: textutil.NewFingerprint(normalized),
		})
	}
	return f
}

// Check evaluates a normalized transcript and records the verdict.
func (f *Filter) Check(text string) Verdict {
	verdict := f.evaluate(text)
	if verdict.Accepted {
		f.accepted++
	} else {
		f.removed[verdict.Reason]++
	}
	return verdict
}

func (f *Filter) evaluate(text string) Verdict {
	candidate := text
	if f.rules.IgnoreCase {
		candidate = f.fold.String(text)
	}
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(candidate, prefix) {
			return Verdict{Reason: ReasonBoilerplatePrefix, Detail: prefix}
		}
	}
	if utf8.RuneCountInString(text) < f.rules.MinChars {
		return Verdict{Reason: ReasonTooShort}
	}
	if strings.Contains(text, ManifestDelimiter) {
		return Verdict{Reason: ReasonDelimiterCollision}
	}
	if f.rules.RejectMusicSymbols && isMusicOnly(text) {
		return Verdict{Reason: ReasonMusicSymbols}
	}
	if match, ok := f.matchPhrase(text); ok {
		return Verdict{Reason: ReasonKnownPhrase, Detail: match}
	}
	return Verdict{Accepted: true}
}

func (f *Filter) matchPhrase(text string) (string, bool) {
	if len(f.phrases) == 0 {
		return "", false
	}
	normalized := f.normalizePhrase(text)
	if normalized == "" {
		return "", false
	}
	var fp *textutil.Fingerprint
	if f.rules.PhraseSimilarity > 0 {
		fp = textutil.NewFingerprint(normalized)
	}
	for _, p := range f.phrases {
		if p.normalized == normalized {
			return p.text, true
		}
		if fp != nil && textutil.CosineSimilarity(fp, p.fingerprint) >= f.rules.PhraseSimilarity {
			return p.text, true
		}
	}
	return "", false
}

// normalizePhrase folds case, drops punctuation, and collapses whitespace.
func (f *Filter) normalizePhrase(s string) string {
	s = f.fold.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return textutil.CollapseSpaces(s)
}

// isMusicOnly reports whether text consists only of music notation symbols
// and whitespace.
func isMusicOnly(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, r := range text {
		switch {
		case r == '¶', r == '♪', r == '♫', r == '♬', r == '*':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}

// Stats summarizes filter activity for a run.
type Stats struct {
	Accepted int
	Removed  map[string]int
}

// TotalRemoved sums removals across reasons.
func (s Stats) TotalRemoved() int {
	total := 0
	for _, n := range s.Removed {
		total += n
	}
	return total
}

// Stats returns a copy of the running counts.
func (f *Filter) Stats() Stats {
	removed := make(map[string]int, len(f.removed))
	for reason, n := range f.removed {
		removed[reason] = n
	}
	return Stats{Accepted: f.accepted, Removed: removed}
}

// LogSummary logs removal counts by reason at INFO.
func (f *Filter) LogSummary(ctx context.Context) {
	stats := f.Stats()
	attrs := []slog.Attr{
		logging.String(logging.FieldEventType, "transcript_filter_summary"),
		logging.Int("transcripts_accepted", stats.Accepted),
		logging.Int("transcripts_removed", stats.TotalRemoved()),
	}
	reasons := make([]string, 0, len(stats.Removed))
	for reason := range stats.Removed {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		attrs = append(attrs, logging.Int("removed_"+reason, stats.Removed[reason]))
	}
	logging.WithContext(ctx, f.logger).LogAttrs(ctx, slog.LevelInfo, "transcript filter summary", attrs...)
}
