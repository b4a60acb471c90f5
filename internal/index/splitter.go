package index

import (
	"strings"
	"unicode/utf8"
)

// Splitter breaks transcript text into overlapping sub-chunks sized for the
// embedding model. Size and overlap are measured in runes.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a splitter. overlap must be smaller than size.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split breaks text into sub-chunks of at most size runes, with consecutive
// sub-chunks overlapping by roughly overlap runes. Split points prefer
// paragraph boundaries, then line breaks, then sentence ends, then spaces,
// falling back to a hard cut. Whitespace-only pieces are dropped.
func (s *Splitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) <= s.size {
		return []string{trimmed}
	}

	var pieces []string
	start := 0

	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
				pieces = append(pieces, piece)
			}
			break
		}

		splitPoint := start + boundaryOffset(string(runes[start:end]))
		if piece := strings.TrimSpace(string(runes[start:splitPoint])); piece != "" {
			pieces = append(pieces, piece)
		}

		next := splitPoint - s.overlap
		if next <= start {
			next = splitPoint
		}
		start = next
	}

	return pieces
}

// boundaryOffset returns the rune offset within window at which to split,
// preferring natural text boundaries. Falls back to the full window length.
func boundaryOffset(window string) int {
	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if i := strings.LastIndex(window, sep); i > 0 {
			return utf8.RuneCountInString(window[:i+len(sep)])
		}
	}
	return utf8.RuneCountInString(window)
}
