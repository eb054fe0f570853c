package helpers

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the Bot API limit for a single text message.
const MaxMessageLength = 4096

// SplitMessage cuts text into chunks of at most limit runes. It prefers
// blank-line boundaries, then line breaks, and hard-cuts only single lines
// longer than limit.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	add := func(piece, sep string) {
		n := utf8.RuneCountInString(piece)
		sepLen := utf8.RuneCountInString(sep)
		if curLen > 0 && curLen+sepLen+n > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += sepLen
		}
		cur.WriteString(piece)
		curLen += n
	}

	for _, block := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(block) <= limit {
			add(block, "\n\n")
			continue
		}
		flush()
		for _, line := range strings.Split(block, "\n") {
			for utf8.RuneCountInString(line) > limit {
				r := []rune(line)
				add(string(r[:limit]), "\n")
				line = string(r[limit:])
			}
			add(line, "\n")
		}
		flush()
	}
	flush()
	return chunks
}
