package types

// TranscribeOptions holds the directives parsed from a caption.
// The zero value means: auto-detect language, plain text, no post-processing.
type TranscribeOptions struct {
	Language   string // source-language hint, empty for auto-detect
	Timestamps bool
	Translate  string // target language, empty for no translation
	Summary    bool
	Voice      bool
}

// Segment is a time-bounded span of transcribed speech.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// TranscriptionResult is what a speech backend returns for one audio file.
type TranscriptionResult struct {
	Text     string
	Language string
	Segments []Segment
}
