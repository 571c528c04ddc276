package server

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInviteManager(t *testing.T) {
	// Setup
	invites := NewInviteManager("http://localhost:8080", nil)

	// Test case 1: Join links follow the API shape
	assert.Equal(t, "http://localhost:8080/api/sessions/abcd1234/join", invites.JoinURL("abcd1234"))

	// Test case 2: Invites render as PNG images
	png, err := invites.GenerateJoinQR("abcd1234")
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
