package message

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/mrsingh-rishi/transcribe-bot/types"
)

// TestParseOptionsDefaults verifies empty input yields zero options.
func TestParseOptionsDefaults(t *testing.T) {
	for _, in := range []string{"", "   ", "hello there"} {
		if got := ParseOptions(in); got != (types.TranscribeOptions{}) {
			t.Fatalf("ParseOptions(%q) = %+v, want defaults", in, got)
		}
	}
}

// TestParseOptionsLangAndTimestamps checks case folding and flags.
func TestParseOptionsLangAndTimestamps(t *testing.T) {
	got := ParseOptions("lang=ES timestamps=1")
	want := types.TranscribeOptions{Language: "es", Timestamps: true}
	if got != want {
		t.Fatalf("options = %+v, want %+v", got, want)
	}
}

// TestParseOptionsInvalidValue keeps defaults for unmatched patterns.
func TestParseOptionsInvalidValue(t *testing.T) {
	if got := ParseOptions("timestamps=2"); got.Timestamps {
		t.Fatal("timestamps=2 should not enable timestamps")
	}
	if got := ParseOptions("timestamps=10 lang=english"); got != (types.TranscribeOptions{}) {
		t.Fatalf("options = %+v, want defaults", got)
	}
}

// TestParseOptionsAllDirectives covers every recognized key.
func TestParseOptionsAllDirectives(t *testing.T) {
	got := ParseOptions("please TRANSLATE=En summary=1 voice=1 lang=ca")
	want := types.TranscribeOptions{Language: "ca", Translate: "en", Summary: true, Voice: true}
	if got != want {
		t.Fatalf("options = %+v, want %+v", got, want)
	}
}

// TestParseOptionsFirstMatchWins documents duplicate key handling.
func TestParseOptionsFirstMatchWins(t *testing.T) {
	got := ParseOptions("lang=fr lang=de timestamps=1 timestamps=0")
	if got.Language != "fr" || !got.Timestamps {
		t.Fatalf("options = %+v, want first occurrences", got)
	}
}

// TestChunkFits returns short text unchanged.
func TestChunkFits(t *testing.T) {
	text := "  short text with trailing space "
	got := Chunk(text, 100)
	if len(got) != 1 || got[0] != text {
		t.Fatalf("Chunk = %q, want [%q]", got, text)
	}
}

// TestChunkPrefersParagraph cuts at the paragraph break past half the window.
func TestChunkPrefersParagraph(t *testing.T) {
	first := strings.Repeat("a", 12) + ". " + strings.Repeat("b", 5)
	text := first + "\n\n" + strings.Repeat("c", 15)
	got := Chunk(text, 30)
	if len(got) != 2 {
		t.Fatalf("chunks = %q, want 2", got)
	}
	if got[0] != first {
		t.Fatalf("first chunk = %q, want %q", got[0], first)
	}
}

// TestChunkIgnoresEarlyBoundary skips boundaries in the first half.
func TestChunkIgnoresEarlyBoundary(t *testing.T) {
	text := "ab\n\n" + strings.Repeat("x", 10) + " " + strings.Repeat("y", 20)
	got := Chunk(text, 20)
	if got[0] != "ab\n\n"+strings.Repeat("x", 10) {
		t.Fatalf("first chunk = %q", got[0])
	}
}

// TestChunkSentence keeps the terminator with the left chunk.
func TestChunkSentence(t *testing.T) {
	text := "One two three four. Five six seven eight nine"
	got := Chunk(text, 24)
	if got[0] != "One two three four." {
		t.Fatalf("first chunk = %q", got[0])
	}
}

// TestChunkIdeographicPeriod cuts after the full-width period.
func TestChunkIdeographicPeriod(t *testing.T) {
	text := "今日は良い天気です。明日も晴れるでしょう"
	got := Chunk(text, 12)
	if got[0] != "今日は良い天気です。" {
		t.Fatalf("first chunk = %q", got[0])
	}
	for _, c := range got {
		if n := utf8.RuneCountInString(c); n > 12 {
			t.Fatalf("chunk %q has %d runes", c, n)
		}
	}
}

// TestChunkHardCut degrades to fixed cuts without whitespace.
func TestChunkHardCut(t *testing.T) {
	text := strings.Repeat("z", 25)
	got := Chunk(text, 10)
	want := []string{strings.Repeat("z", 10), strings.Repeat("z", 10), strings.Repeat("z", 5)}
	if len(got) != len(want) {
		t.Fatalf("chunks = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestChunkBoundsAndLossless checks size bound, no empties and no loss.
func TestChunkBoundsAndLossless(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog! ", 40) +
		"\n\n" + strings.Repeat("lorem-ipsum-dolor ", 30) + "\n" + strings.Repeat("q", 300)
	for _, max := range []int{7, 50, 100, 333} {
		chunks := Chunk(text, max)
		for _, c := range chunks {
			if c == "" {
				t.Fatalf("max=%d: empty chunk", max)
			}
			if n := utf8.RuneCountInString(c); n > max {
				t.Fatalf("max=%d: chunk of %d runes", max, n)
			}
		}
		if got, want := stripSpace(strings.Join(chunks, "")), stripSpace(text); got != want {
			t.Fatalf("max=%d: non-whitespace content changed", max)
		}
	}
}

// TestChunkWhitespaceOnlyOverBound returns a single empty chunk instead of
// the oversize input.
func TestChunkWhitespaceOnlyOverBound(t *testing.T) {
	for _, text := range []string{strings.Repeat(" ", 50), strings.Repeat("\n \t", 40)} {
		got := Chunk(text, 10)
		if len(got) != 1 || got[0] != "" {
			t.Fatalf("Chunk(%q) = %q, want [\"\"]", text, got)
		}
	}
}

// TestChunkDefaultSize uses the default when maxSize is not positive.
func TestChunkDefaultSize(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	for _, c := range Chunk(text, 0) {
		if utf8.RuneCountInString(c) > DefaultMaxChunkSize {
			t.Fatal("chunk exceeds default size")
		}
	}
}

// TestFormatDuration verifies seconds and minute rendering.
func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{45: "45s", 125: "2m 5s", 600: "10m 0s", 0: "0s"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

// TestFormatTimestamp verifies [MM:SS] rendering.
func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(75.9); got != "[01:15]" {
		t.Fatalf("FormatTimestamp = %q", got)
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
