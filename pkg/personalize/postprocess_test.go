package personalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostProcessStripsHeaders(t *testing.T) {
	raw := "# Calm Breathing\n\n**Introduction**\n[0:00] Welcome. Find a comfortable seat.\n\n" +
		"Main Practice:\n(0:30-2:00) Breathe in slowly through your nose.\nNarrator: Let the breath settle.\n\n" +
		"## Conclusion\nWhen you're ready, gently open your eyes."

	got := postProcess(raw)

	assert.Equal(t, "Welcome. Find a comfortable seat.\n\n"+
		"Breathe in slowly through your nose.\nLet the breath settle.\n\n"+
		"When you're ready, gently open your eyes.", got)
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "0:30")
}

func TestPostProcessPreservesContent(t *testing.T) {
	raw := "Welcome. Settle into your seat.\n" +
		"**Breathe in slowly and hold it for a moment.**\n" +
		"5:00 in the morning can feel heavy, and that is okay.\n" +
		"Voice: notice it, and let it pass.\n" +
		"Guide: your breath is the guide.\n" +
		"**Practice** with a soft gaze.\n" +
		"When you're ready, gently open your eyes."

	assert.Equal(t, "Welcome. Settle into your seat.\n"+
		"Breathe in slowly and hold it for a moment.\n"+
		"5:00 in the morning can feel heavy, and that is okay.\n"+
		"Voice: notice it, and let it pass.\n"+
		"Guide: your breath is the guide.\n"+
		"**Practice** with a soft gaze.\n"+
		"When you're ready, gently open your eyes.", postProcess(raw))
}

func TestPostProcessTimestampForms(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"[0:30] Breathe out.", "Breathe out."},
		{"(1:00-1:30) Breathe out.", "Breathe out."},
		{"00:45 - Breathe out.", "Breathe out."},
		{"00:45: Breathe out.", "Breathe out."},
		{"Narrator: Breathe out.", "Breathe out."},
		{"10:15 marks the end of the workday.", "10:15 marks the end of the workday."},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := postProcess("Welcome.\n" + tt.line + "\nGently rest.")
			assert.Equal(t, "Welcome.\n"+tt.want+"\nGently rest.", got)
		})
	}
}

func TestPostProcessAddsOpeningAndClosing(t *testing.T) {
	got := postProcess("Notice the weight of your body on the chair. Breathe.")

	assert.True(t, strings.HasPrefix(got, cannedOpening))
	assert.True(t, strings.HasSuffix(got, cannedClosing))
}

func TestPostProcessKeepsExistingOpeningAndClosing(t *testing.T) {
	raw := "Take a moment to arrive here. Breathe in, breathe out. Slowly return to the room."
	assert.Equal(t, raw, postProcess(raw))
}

func TestPostProcessOpeningWindow(t *testing.T) {
	// The lead word appears only after the first 100 characters.
	raw := strings.Repeat("Quiet. ", 20) + "Begin now. Gently rest."
	got := postProcess(raw)
	assert.True(t, strings.HasPrefix(got, cannedOpening))
	assert.False(t, strings.HasSuffix(got, cannedClosing))
}

func TestPostProcessOnlyHeaders(t *testing.T) {
	assert.Empty(t, postProcess("# Title\n**Intro**\nConclusion:"))
}
