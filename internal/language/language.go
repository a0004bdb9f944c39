package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words maps full English language names to ISO 639-1 codes.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"dutch":      "nl",
	"polish":     "pl",
}

// ToISO2 reduces a language tag, ISO 639 code, or English language name to
// the 2-letter ISO 639-1 base code transcription engines expect.
// "en-US", "en_us", "eng", and "English" all map to "en".
// Returns empty string for unrecognized input.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if mapped, ok := words[code]; ok {
		return mapped
	}
	tag, err := xlang.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == xlang.No {
		return ""
	}
	iso := base.String()
	if len(iso) != 2 {
		return ""
	}
	return iso
}

// DisplayName returns the English name for any recognized code.
// Returns "Unknown" for empty or unrecognized input.
func DisplayName(code string) string {
	iso := ToISO2(code)
	if iso == "" {
		return "Unknown"
	}
	name := display.English.Languages().Name(xlang.Make(iso))
	if name == "" {
		return strings.ToUpper(iso)
	}
	return name
}
