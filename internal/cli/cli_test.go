package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlightJSON(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(!checkNoColor())

	out := HighlightJSON(`{"id":"gpt-4o","count":2,"live":true,"warning":null}`)
	assert.Contains(t, out, Blue+`"id"`+ResetCode+":")
	assert.Contains(t, out, Green+`"gpt-4o"`+ResetCode)
	assert.Contains(t, out, Purple+"2"+ResetCode)
	assert.Contains(t, out, Yellow+"true"+ResetCode)
	assert.Contains(t, out, DimCode+"null"+ResetCode)
}

func TestPrettyFormat_NoColor(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(!checkNoColor())

	out := PrettyFormat(map[string]string{"id": "sonar"})
	assert.Equal(t, "{\n  \"id\": \"sonar\"\n}", out)
	assert.Equal(t, "x", Style("x", Red))
}
