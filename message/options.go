package message

import (
	"regexp"
	"strings"

	"github.com/mrsingh-rishi/transcribe-bot/types"
)

var (
	langRe       = regexp.MustCompile(`(?i)\blang=([a-z]{2,3})\b`)
	translateRe  = regexp.MustCompile(`(?i)\btranslate=([a-z]{2,3})\b`)
	timestampsRe = regexp.MustCompile(`(?i)\btimestamps=([01])\b`)
	summaryRe    = regexp.MustCompile(`(?i)\bsummary=([01])\b`)
	voiceRe      = regexp.MustCompile(`(?i)\bvoice=([01])\b`)
)

// ParseOptions extracts transcription directives from caption text.
//
// Recognized tokens are lang=XX, translate=XX, timestamps=0|1, summary=0|1 and
// voice=0|1. Anything else is ignored. When a key appears more than once the
// first occurrence wins.
func ParseOptions(text string) types.TranscribeOptions {
	var opts types.TranscribeOptions
	if strings.TrimSpace(text) == "" {
		return opts
	}

	if m := langRe.FindStringSubmatch(text); m != nil {
		opts.Language = strings.ToLower(m[1])
	}
	if m := translateRe.FindStringSubmatch(text); m != nil {
		opts.Translate = strings.ToLower(m[1])
	}
	opts.Timestamps = flag(timestampsRe, text)
	opts.Summary = flag(summaryRe, text)
	opts.Voice = flag(voiceRe, text)
	return opts
}

func flag(re *regexp.Regexp, text string) bool {
	m := re.FindStringSubmatch(text)
	return m != nil && m[1] == "1"
}
