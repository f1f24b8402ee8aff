package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	assert.Nil(t, parseTags(""))
	assert.Equal(t, []string{"calm", "voice"}, parseTags(" calm, ,voice,"))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"total": 3}))
	assert.Equal(t, "{\n  \"total\": 3\n}\n", buf.String())
}

func TestOptionalKind(t *testing.T) {
	kind, err := optionalKind("")
	require.NoError(t, err)
	assert.Empty(t, kind)

	_, err = optionalKind("weekly")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"generate", "regenerate", "rate", "ratings", "stats", "preferences", "delete-rating", "analyze", "history", "feedback", "health"} {
		assert.True(t, names[want], want)
	}
}
