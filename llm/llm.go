// Package llm holds the text post-processing backends: translation and
// summarization.
package llm

import "context"

// Generator rewrites a transcript.
type Generator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"ca": "Catalan",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"ru": "Russian",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
}

// LanguageName returns the English name for a language code, or the code
// itself when it is not known.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
