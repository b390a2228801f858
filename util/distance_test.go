package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("push", "push"), "identical strings have distance zero")
	assert.Equal(t, 4, LevenshteinDistance("", "push"), "distance from empty is the length")
	assert.Equal(t, 1, LevenshteinDistance("push", "pash"), "a single substitution counts once")
	assert.Equal(t, 2, LevenshteinDistance("comit", "commit"), "insert plus substitute counts twice")
	assert.Equal(t, 1, LevenshteinDistance("naïve", "naive"), "distances operate on runes, not bytes")
}

func TestNearestMatch(t *testing.T) {
	candidates := []string{"commit", "checkout", "cherry-pick"}

	assert.Equal(t, "commit", NearestMatch("comit", candidates, 2),
		"the closest candidate within the budget should be returned")
	assert.Equal(t, "", NearestMatch("status", candidates, 2),
		"nothing close enough yields an empty suggestion")
	assert.Equal(t, "", NearestMatch("commit", nil, 2), "no candidates yields no suggestion")
}
