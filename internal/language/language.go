// Package language normalizes caller-supplied locale hints into the 2-letter
// codes the transcription tool accepts. Hints are free-form metadata ("fr",
// "fr-FR", "French"); anything unrecognized is left to the tool's own
// auto-detection.
package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Full word forms the BCP 47 parser does not accept.
var byWord = map[string]string{
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
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// Normalize resolves a locale hint to an ISO 639-1 code. The boolean reports
// whether the hint was recognized.
func Normalize(hint string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(hint))
	if trimmed == "" {
		return "", false
	}
	if code, ok := byWord[trimmed]; ok {
		return code, true
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	code := base.String()
	if len(code) != 2 {
		return "", false
	}
	return code, true
}
