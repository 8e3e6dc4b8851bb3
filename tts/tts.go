// Package tts synthesizes transcripts into audio replies.
package tts

import (
	"context"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxInputChars bounds the text sent to a speech backend.
const MaxInputChars = 4000

// Kind selects how an attachment is delivered.
type Kind int

const (
	// KindVoice is an OGG/Opus voice note.
	KindVoice Kind = iota
	// KindAudio is a regular audio file such as MP3.
	KindAudio
)

// Attachment is a synthesized file ready to send.
type Attachment struct {
	Path string
	Kind Kind
}

// Synthesizer writes speech for text into the job directory.
type Synthesizer interface {
	// Extension is the file extension of the produced audio, with the dot.
	Extension() string
	Synthesize(ctx context.Context, text, outPath string) (Attachment, error)
}

// Truncate caps text at MaxInputChars runes and marks the cut with "...".
// The second return reports whether text was shortened.
func Truncate(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= MaxInputChars {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:MaxInputChars]) + "...", true
}

func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "create speech file")
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.Wrap(err, "write speech file")
	}
	return errors.Wrap(f.Close(), "close speech file")
}
