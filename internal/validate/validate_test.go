package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsCollectAllFailures(t *testing.T) {
	var v Errors
	assert.False(t, v.Any())

	v.Add("title", "title is required", "")
	v.Addf("seats[1].number", 0, "seat number must be >= 1, got %d", 0)

	assert.True(t, v.Any())
	fields := v.Fields()
	assert.Len(t, fields, 2)
	assert.Equal(t, "title", fields[0].Field)
	assert.Equal(t, "seat number must be >= 1, got 0", fields[1].Message)
	assert.Equal(t, 0, fields[1].Value)
}
