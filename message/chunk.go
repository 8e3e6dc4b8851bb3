package message

import (
	"strings"
	"unicode"
)

// DefaultMaxChunkSize stays well under Telegram's 4096 character limit.
const DefaultMaxChunkSize = 3500

// breakpoint is one boundary the chunker looks for. keep is how many runes of
// the match stay on the left side of the cut.
type breakpoint struct {
	sep  []rune
	keep int
}

// Boundaries in priority order. Sentence terminators form a single tier.
var breakTiers = [][]breakpoint{
	{{sep: []rune("\n\n"), keep: 2}},
	{{sep: []rune("\n"), keep: 1}},
	{
		{sep: []rune(". "), keep: 1},
		{sep: []rune("! "), keep: 1},
		{sep: []rune("? "), keep: 1},
		{sep: []rune("。"), keep: 1},
	},
	{{sep: []rune(" "), keep: 1}},
}

// Chunk splits text into pieces of at most maxSize runes, cutting at the best
// natural boundary found in the second half of each window: paragraph, line,
// sentence, then word. Without such a boundary it cuts at exactly maxSize.
//
// Text that already fits is returned unchanged as the only chunk. Whitespace
// at cut points is trimmed and whitespace-only pieces are dropped, so no
// non-whitespace character is ever lost.
func Chunk(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}

	remaining := []rune(text)
	if len(remaining) <= maxSize {
		return []string{text}
	}

	var chunks []string
	for len(remaining) > 0 {
		if len(remaining) <= maxSize {
			chunks = appendChunk(chunks, string(remaining))
			break
		}

		cut := cutPoint(remaining[:maxSize], maxSize)
		chunks = appendChunk(chunks, strings.TrimRightFunc(string(remaining[:cut]), unicode.IsSpace))
		remaining = trimLeftRunes(remaining[cut:])
	}

	if len(chunks) == 0 {
		// Whitespace-only input longer than maxSize.
		return []string{""}
	}
	return chunks
}

// cutPoint returns the exclusive end of the next chunk within window.
func cutPoint(window []rune, maxSize int) int {
	half := maxSize / 2
	for _, tier := range breakTiers {
		best := -1
		for _, bp := range tier {
			if i := lastIndex(window, bp.sep); i >= 0 && i+bp.keep > best {
				best = i + bp.keep
			}
		}
		if best >= half && best > 0 {
			return best
		}
	}
	return maxSize
}

func appendChunk(chunks []string, chunk string) []string {
	if strings.TrimSpace(chunk) == "" {
		return chunks
	}
	return append(chunks, chunk)
}

func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j, r := range sep {
			if s[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func trimLeftRunes(s []rune) []rune {
	for len(s) > 0 && unicode.IsSpace(s[0]) {
		s = s[1:]
	}
	return s
}
