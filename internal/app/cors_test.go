package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	patterns := []string{"app.skillpath.dev", "*.skillpath.dev", "localhost:*"}

	assert.True(t, originAllowed(patterns, "https://app.skillpath.dev"))
	assert.True(t, originAllowed(patterns, "https://staging.skillpath.dev"))
	assert.True(t, originAllowed(patterns, "http://localhost:5173"))
	assert.True(t, originAllowed(patterns, "localhost:3000"), "bare host without scheme")

	assert.False(t, originAllowed(patterns, "https://skillpath.dev.evil.com"))
	assert.False(t, originAllowed(patterns, "https://other.example.com"))
	assert.False(t, originAllowed(nil, "https://app.skillpath.dev"))
}
