package personalize

import (
	"regexp"
	"strings"
)

const (
	cannedOpening = "Let us begin this meditation journey. "
	cannedClosing = "\n\nWhen you're ready, slowly open your eyes and bring this calm back to your daily life."

	openingWindow = 100
	closingWindow = 150
)

var (
	openingWords = []string{"welcome", "hello", "let's", "take", "find", "begin", "start"}
	closingWords = []string{"gently", "slowly", "when you're ready", "take your time", "gradually"}

	sectionWords = `(introduction|intro|opening|main practice|practice|body scan|closing|conclusion|ending)`

	// Whole lines that are only a section label, e.g. "## Body Scan",
	// "**Introduction**" or "Conclusion:". Bold text is a label only when it
	// names a section.
	headerLine = regexp.MustCompile(`(?i)^(#{1,6}(\s.*)?|\*\*\s*` + sectionWords + `\s*(\([^)]*\))?\s*:?\s*\*\*:?|` + sectionWords + `\s*(\([^)]*\))?\s*:?)$`)

	// Leading timestamps and narrator tags, e.g. "[0:30]", "(1:00-1:30)",
	// "00:45 - " or "Narrator:". A bare clock time followed directly by
	// prose ("5:00 in the morning") is content and stays.
	linePrefix = regexp.MustCompile(`(?i)^(\[\d{1,2}:\d{2}(\s*[-–]\s*\d{1,2}:\d{2})?\]\s*([-–:]\s*)?|\(\d{1,2}:\d{2}(\s*[-–]\s*\d{1,2}:\d{2})?\)\s*([-–:]\s*)?|\d{1,2}:\d{2}(\s*[-–]\s*\d{1,2}:\d{2})?\s*[-–:]\s+|narrator\s*:\s*)`)

	// A line that is bold from end to end keeps its text without the markers.
	boldLine = regexp.MustCompile(`^\*\*([^*]+)\*\*$`)

	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// postProcess removes section headers, timestamps and narrator tags, then
// guarantees a recognizable opening and closing.
func postProcess(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if headerLine.MatchString(trimmed) {
			continue
		}
		trimmed = boldLine.ReplaceAllString(trimmed, "$1")
		kept = append(kept, strings.TrimSpace(linePrefix.ReplaceAllString(trimmed, "")))
	}

	out := strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(kept, "\n"), "\n\n"))
	if out == "" {
		return ""
	}

	if !containsAny(head(out, openingWindow), openingWords) {
		out = cannedOpening + out
	}
	if !containsAny(tail(out, closingWindow), closingWords) {
		out += cannedClosing
	}
	return out
}

func containsAny(s string, words []string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
