package text

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanExtracted(t *testing.T) {
	t.Run("Collapses Whitespace", func(t *testing.T) {
		in := "  quarterly   sales\r\n\r\n\r\n\t rose \x00 10%  "
		assert.Equal(t, "quarterly sales\n\nrose 10%", CleanExtracted(in))
	})

	t.Run("Invalid UTF-8", func(t *testing.T) {
		out := CleanExtracted("ok \xff done")
		assert.True(t, utf8.ValidString(out))
		assert.Contains(t, out, "ok")
		assert.Contains(t, out, "done")
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", CleanExtracted(" \n\t "))
	})
}

func TestTruncate(t *testing.T) {
	t.Run("Short Text Untouched", func(t *testing.T) {
		assert.Equal(t, "hello world", Truncate("hello world", 100))
	})

	t.Run("Disabled", func(t *testing.T) {
		long := strings.Repeat("a", 50)
		assert.Equal(t, long, Truncate(long, 0))
	})

	t.Run("Stops At Word Boundary", func(t *testing.T) {
		assert.Equal(t, "alpha beta", Truncate("alpha beta gamma delta", 13))
	})

	t.Run("Hard Cut Without Spaces", func(t *testing.T) {
		assert.Equal(t, "abcde", Truncate("abcdefghij", 5))
	})

	t.Run("Counts Runes", func(t *testing.T) {
		out := Truncate("ééééééé", 3)
		assert.Equal(t, "ééé", out)
		assert.True(t, utf8.ValidString(out))
	})
}
