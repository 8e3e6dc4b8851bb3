// Package stt adapts speech-to-text backends to a single Transcriber interface.
package stt

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mrsingh-rishi/transcribe-bot/message"
	"github.com/mrsingh-rishi/transcribe-bot/types"
)

// LanguageAuto is reported when the backend did not detect a language.
const LanguageAuto = "auto"

// LanguageUnknown is reported when detection was requested but returned nothing.
const LanguageUnknown = "unknown"

// Request describes one transcription call.
type Request struct {
	AudioPath  string
	Language   string // optional hint
	Timestamps bool
}

// Transcriber turns canonical audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (types.TranscriptionResult, error)
}

// FormatSegments drops empty segments and renders the rest in start-time
// order; segments starting together keep their backend order. With
// timestamps each line is "[MM:SS] text"; otherwise segment texts are joined
// by spaces. The input slice is not modified.
func FormatSegments(segments []types.Segment, withTimestamps bool) (string, []types.Segment) {
	kept := make([]types.Segment, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if s.End < s.Start {
			s.End = s.Start
		}
		s.Text = text
		kept = append(kept, s)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	parts := make([]string, 0, len(kept))
	for _, s := range kept {
		if withTimestamps {
			parts = append(parts, message.FormatTimestamp(s.Start)+" "+s.Text)
		} else {
			parts = append(parts, s.Text)
		}
	}
	if withTimestamps {
		return strings.Join(parts, "\n"), kept
	}
	return strings.Join(parts, " "), kept
}

func languageOr(detected, hint, fallback string) string {
	if d := strings.TrimSpace(detected); d != "" {
		return strings.ToLower(d)
	}
	if hint != "" {
		return hint
	}
	return fallback
}

// Lazy defers backend construction until first use and then reuses the
// same instance. Construction happens at most once, even under concurrent
// first calls; a construction error is returned to every caller.
type Lazy struct {
	newFn func() (Transcriber, error)

	once sync.Once
	t    Transcriber
	err  error
}

// NewLazy wraps a backend constructor.
func NewLazy(newFn func() (Transcriber, error)) *Lazy {
	return &Lazy{newFn: newFn}
}

func (l *Lazy) get() (Transcriber, error) {
	l.once.Do(func() {
		l.t, l.err = l.newFn()
	})
	return l.t, l.err
}

// Transcribe initializes the backend on first call and delegates to it.
func (l *Lazy) Transcribe(ctx context.Context, req Request) (types.TranscriptionResult, error) {
	t, err := l.get()
	if err != nil {
		return types.TranscriptionResult{}, err
	}
	return t.Transcribe(ctx, req)
}
