package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "..", Truncate("anything", 2))
	assert.Equal(t, "exactly ten", Truncate("exactly ten", 11))

	// Cuts at the word boundary before the limit.
	got := Truncate("the quick brown fox jumps over", 20)
	assert.Equal(t, "the quick brown...", got)

	// UTF-8 safe: rune count, not byte count.
	got = Truncate("héllo wörld wéll béyond thé limit", 15)
	assert.LessOrEqual(t, len([]rune(got)), 15)
	assert.Contains(t, got, "...")
}
