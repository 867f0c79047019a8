package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferenceShape(t *testing.T) {
	ref, err := GenerateReference("BK")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "BK"))
	// "BK" + 13-digit millis + 5 char suffix.
	assert.Len(t, ref, 20)
	for _, r := range ref {
		assert.Contains(t, referenceCharset, string(r))
	}
}

func TestGenerateReferenceUniqueEnough(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		ref, err := GenerateReference("TK")
		require.NoError(t, err)
		_, dup := seen[ref]
		assert.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
