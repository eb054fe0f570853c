package helpers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortTextIsUntouched(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
	assert.Equal(t, []string{""}, SplitMessage("", 10))
}

func TestSplitMessagePrefersBlankLines(t *testing.T) {
	block := strings.Repeat("a", 6)
	text := block + "\n\n" + block + "\n\n" + block
	got := SplitMessage(text, 14)
	require.Equal(t, []string{block + "\n\n" + block, block}, got)
	assert.Equal(t, text, strings.Join(got, "\n\n"))
}

func TestSplitMessageHardCutsLongLines(t *testing.T) {
	text := strings.Repeat("°", 25)
	got := SplitMessage(text, 10)
	require.Len(t, got, 3)
	for _, chunk := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
	}
	assert.Equal(t, text, strings.ReplaceAll(strings.Join(got, ""), "\n", ""))
}

func TestSplitMessageRespectsTelegramLimit(t *testing.T) {
	var blocks []string
	for i := 0; i < 60; i++ {
		blocks = append(blocks, strings.Repeat("City: Moscow\n", 7))
	}
	got := SplitMessage(strings.Join(blocks, "\n\n"), MaxMessageLength)
	require.Greater(t, len(got), 1)
	for _, chunk := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), MaxMessageLength)
	}
}
