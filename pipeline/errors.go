package pipeline

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoSpeech marks a transcription whose text is empty after trimming.
// It is an outcome, not a fault.
var ErrNoSpeech = errors.New("no speech detected")

// ValidationError is a user-correctable rejection. Message is shown to the
// user verbatim.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// TransportError is a failed download from the chat platform. The wrapped
// error is logged, never shown.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "download failed" }

func (e *TransportError) Unwrap() error { return e.Err }

// TranscriptionError is a speech backend failure.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "transcription timed out"
	}
	return "transcription failed"
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// GenerationError is a failure in translation, summarization or speech
// synthesis.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return e.Op + " timed out"
	}
	return e.Op + " failed"
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StageError records where a job failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// userCause is the proximate cause shown in the generic failure message.
func userCause(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		err = stageErr.Err
	}
	return err.Error()
}
