package service

import (
	"strings"
	"unicode/utf8"
)

// layoutSeparators is the break-point priority for the recursive splitter:
// paragraph breaks first, then bullet markers, line breaks, sentence
// punctuation, clause punctuation, and plain whitespace.
var layoutSeparators = []string{"\n\n", "\n• ", "\n- ", "\n– ", "\n— ", "\n", ". ", "; ", " "}

// SplitText cuts text into chunks of at most chunkSize bytes with roughly
// overlap bytes carried between consecutive chunks. The cut point is the
// last occurrence of the highest-priority separator inside the size window;
// when no separator is found the text is cut hard at the size limit.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			if c := strings.TrimSpace(text[start:]); c != "" {
				chunks = append(chunks, c)
			}
			break
		}

		cut := -1
		window := text[start:end]
		for _, sep := range layoutSeparators {
			if i := strings.LastIndex(window, sep); i > 0 {
				cut = start + i + len(sep)
				break
			}
		}
		if cut <= start {
			cut = runeBoundaryBefore(text, end)
			if cut <= start {
				// Window of continuation bytes, nothing to back off to.
				// Cut hard so the scan always advances.
				cut = end
			}
		}

		if c := strings.TrimSpace(text[start:cut]); c != "" {
			chunks = append(chunks, c)
		}

		next := runeBoundaryBefore(text, cut-overlap)
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// runeBoundaryBefore backs i off to the nearest rune start so a byte-based
// cut never splits a multi-byte character.
func runeBoundaryBefore(s string, i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
