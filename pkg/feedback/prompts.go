package feedback

import (
	"fmt"
	"sort"
	"strings"
)

// maxDigestEntries caps the prior feedback listed in the analysis prompt.
const maxDigestEntries = 5

const analysisSystemPrompt = "You are a professional meditation content analysis expert. " +
	"You analyze user feedback and give specific, actionable improvement suggestions. " +
	"Always return the analysis as a JSON object."

const analysisPromptTemplate = `Please analyze the following user feedback on a guided meditation and provide detailed improvement suggestions.

Current feedback:
- Rating: %d/5 stars
- Comment: %s
- Mood at the time: %s
- Description at the time: %s
- Feedback time: %s
%s
Analyze from these perspectives:

1. Key issues: problems the user may have encountered, content quality gaps, personalization gaps.
2. Improvement suggestions: content adjustments, style optimizations, personalization directions.
3. User preferences: preferred content style, guidance tone, duration and rhythm, personalization level.
4. Next meditation guidance: targeted content, tone and personalization changes.

Return the analysis as JSON in exactly this shape:
{
    "key_issues": ["Issue 1", "Issue 2"],
    "improvement_suggestions": ["Suggestion 1", "Suggestion 2"],
    "user_preferences": {
        "content_style": "the user's preferred content style",
        "guidance_tone": "the user's preferred guidance tone",
        "duration_preference": "the user's preferred duration",
        "personalization_level": "the user's preferred personalization level"
    },
    "next_meditation_guidance": "detailed guidance for the next meditation"
}

Keep the analysis accurate, specific and actionable.`

const guidancePromptTemplate = `Based on the user feedback analysis below, write specific guidance for the next meditation.

User information:
- Overall satisfaction: %.2f
- Current rating: %d/5 stars
- Current mood: %s
- Current description: %s
- User comment: %s

Analysis results:
- Key issues: %s
- Improvement suggestions: %s
- User preferences: %s

Cover content style adjustments, guidance tone, personalization elements and concrete content improvements.
Answer in English with specific, actionable suggestions.`

func orNone(s, none string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}

func buildAnalysisPrompt(current UserFeedback, prior []UserFeedback) string {
	return fmt.Sprintf(analysisPromptTemplate,
		current.Score,
		orNone(current.Comment, "No comment"),
		current.Mood,
		current.Context,
		current.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		historyDigest(prior),
	)
}

// historyDigest lists up to five of the newest prior entries.
func historyDigest(prior []UserFeedback) string {
	if len(prior) == 0 {
		return ""
	}

	sorted := append([]UserFeedback(nil), prior...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > maxDigestEntries {
		sorted = sorted[:maxDigestEntries]
	}

	var b strings.Builder
	b.WriteString("\nHistorical feedback summary:\n")
	for i, f := range sorted {
		fmt.Fprintf(&b, "%d. Rating: %d/5, ", i+1, f.Score)
		if f.Comment != "" {
			fmt.Fprintf(&b, "Comment: %s, ", f.Comment)
		}
		fmt.Fprintf(&b, "Mood: %s\n", f.Mood)
	}
	return b.String()
}

func buildGuidancePrompt(current UserFeedback, satisfaction float64, content *contentAnalysis) string {
	return fmt.Sprintf(guidancePromptTemplate,
		satisfaction,
		current.Score,
		current.Mood,
		current.Context,
		orNone(current.Comment, "No comment"),
		orNone(strings.Join(content.KeyIssues, ", "), "None"),
		orNone(strings.Join(content.ImprovementSuggestions, ", "), "None"),
		FormatPreferences(content.UserPreferences),
	)
}

// FormatPreferences renders preferences as "key: value" pairs in key order.
func FormatPreferences(p Preferences) string {
	if len(p) == 0 {
		return "None"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, p[k]))
	}
	return strings.Join(parts, "; ")
}
