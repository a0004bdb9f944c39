package corpus

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"voicecorpus/internal/audio"
	"voicecorpus/internal/services"
	"voicecorpus/internal/textutil"
)

// Issue kinds reported by Verify.
const (
	IssueMalformedLine    = "malformed_line"
	IssueTrailingNewline  = "trailing_newline"
	IssueBadFilename      = "bad_filename"
	IssueDuplicate        = "duplicate"
	IssueSequenceGap      = "sequence_gap"
	IssueMissingClip      = "missing_clip"
	IssueUnreadableClip   = "unreadable_clip"
	IssueClipFormat       = "clip_format"
	IssueDuration         = "duration_out_of_bounds"
	IssueEmptyText        = "empty_text"
	IssueOrphanClip       = "orphan_clip"
	durationToleranceSecs = 0.001
)

// VerifyOptions sets the expectations a corpus is checked against. Zero
// values disable the matching check.
type VerifyOptions struct {
	Voice      string
	SampleRate int
	MinSeconds float64
	MaxSeconds float64
}

// Issue is one problem found in a corpus. Line is 0 for problems that are not
// tied to a manifest row.
type Issue struct {
	Line   int
	File   string
	Kind   string
	Detail string
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s (%s)", i.Line, i.Kind, i.Detail, i.File)
	}
	return fmt.Sprintf("%s: %s (%s)", i.Kind, i.Detail, i.File)
}

// Report summarizes a verification pass.
type Report struct {
	Entries      int
	TotalSeconds float64
	Issues       []Issue
}

// OK reports whether no issues were found.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Verify checks a finished dataset directory: manifest shape, contiguous
// numbering from 1, clip presence and format, duration bounds, and clips the
// manifest does not reference. A missing manifest is an error; every other
// problem is reported as an Issue.
func Verify(datasetDir string, opts VerifyOptions) (Report, error) {
	manifestPath := filepath.Join(datasetDir, ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Report{}, services.Wrap(services.ErrNotFound, "verify", "read manifest", manifestPath, err)
		}
		return Report{}, services.Wrap(services.ErrValidation, "verify", "read manifest", manifestPath, err)
	}

	var report Report
	add := func(line int, file, kind, detail string) {
		report.Issues = append(report.Issues, Issue{Line: line, File: file, Kind: kind, Detail: detail})
	}

	if bytes.HasSuffix(data, []byte("\n")) {
		add(0, ManifestName, IssueTrailingNewline, "manifest must not end with a newline")
		data = bytes.TrimRight(data, "\n")
	}

	pattern := filenamePattern(opts.Voice)
	wavsDir := filepath.Join(datasetDir, WavsDirName)
	referenced := make(map[string]struct{})
	expected := 1

	rows, err := ParseManifest(bytes.NewReader(data))
	if err != nil {
		return Report{}, services.Wrap(services.ErrValidation, "verify", "parse manifest", manifestPath, err)
	}
	for _, row := range rows {
		line, file, text := row.Number, row.File, row.Text
		if row.Malformed {
			add(line, "", IssueMalformedLine, "missing '|' delimiter")
			continue
		}
		report.Entries++
		if strings.TrimSpace(text) == "" {
			add(line, file, IssueEmptyText, "transcript is empty")
		}
		if _, dup := referenced[file]; dup {
			add(line, file, IssueDuplicate, "file listed more than once")
			continue
		}
		referenced[file] = struct{}{}

		m := pattern.FindStringSubmatch(file)
		if m == nil {
			add(line, file, IssueBadFilename, "expected <voice>_NNNN.wav")
		} else {
			id, _ := strconv.Atoi(m[1])
			if id != expected {
				add(line, file, IssueSequenceGap, fmt.Sprintf("expected id %04d, found %04d", expected, id))
			}
			expected = id + 1
		}

		path := filepath.Join(wavsDir, file)
		if _, err := os.Stat(path); err != nil {
			add(line, file, IssueMissingClip, "clip not found in "+WavsDirName)
			continue
		}
		info, err := audio.ReadInfo(path)
		if err != nil {
			add(line, file, IssueUnreadableClip, err.Error())
			continue
		}
		if detail := clipFormatProblem(info, opts.SampleRate); detail != "" {
			add(line, file, IssueClipFormat, detail)
		}
		seconds := info.Seconds()
		report.TotalSeconds += seconds
		if opts.MinSeconds > 0 && seconds < opts.MinSeconds-durationToleranceSecs {
			add(line, file, IssueDuration, fmt.Sprintf("%.3fs is below minimum %.3fs", seconds, opts.MinSeconds))
		}
		// The maximum is exclusive, matching clip validation.
		if opts.MaxSeconds > 0 && seconds >= opts.MaxSeconds {
			add(line, file, IssueDuration, fmt.Sprintf("%.3fs is not below maximum %.3fs", seconds, opts.MaxSeconds))
		}
	}

	orphans, err := existingClips(wavsDir)
	if err != nil {
		return report, services.Wrap(services.ErrValidation, "verify", "list clips", wavsDir, err)
	}
	sort.Strings(orphans)
	for _, path := range orphans {
		name := filepath.Base(path)
		if _, ok := referenced[name]; !ok {
			add(0, name, IssueOrphanClip, "clip is not referenced by the manifest")
		}
	}
	return report, nil
}

func filenamePattern(voice string) *regexp.Regexp {
	prefix := `[a-z0-9_-]+`
	if strings.TrimSpace(voice) != "" {
		prefix = regexp.QuoteMeta(textutil.SanitizeToken(voice))
	}
	return regexp.MustCompile(`^` + prefix + `_(\d{4,})\.wav$`)
}

func clipFormatProblem(info audio.Info, sampleRate int) string {
	var problems []string
	if info.Format != 1 {
		problems = append(problems, fmt.Sprintf("format %d is not PCM", info.Format))
	}
	if info.Channels != 1 {
		problems = append(problems, fmt.Sprintf("%d channels, want mono", info.Channels))
	}
	if info.BitDepth != audio.ClipBitDepth {
		problems = append(problems, fmt.Sprintf("%d-bit, want %d-bit", info.BitDepth, audio.ClipBitDepth))
	}
	if sampleRate > 0 && info.SampleRate != sampleRate {
		problems = append(problems, fmt.Sprintf("%d Hz, want %d Hz", info.SampleRate, sampleRate))
	}
	return strings.Join(problems, "; ")
}
