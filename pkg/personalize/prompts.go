package personalize

import (
	"fmt"
	"strings"

	"github.com/mindtuner/mindtuner-go/pkg/feedback"
)

const enhancedSystemPrompt = "You are a professional meditation guide, and you need to generate " +
	"personalized meditation content for a user."

const plainSystemPrompt = "You are a professional and compassionate meditation guide. " +
	"Write calm, supportive guided meditations as plain text suitable for text-to-speech."

const enhancedRequirements = `Generation requirements:
1. Content personalization:
   - Adjust the content to the user's current mood and situation
   - Build on what the feedback history shows the user responds to
   - Avoid the problems the user has pointed out before
2. Style optimization:
   - Follow the user's preferred content style and guidance tone
   - Keep the language natural, warm and easy to follow
3. Specific requirements:
   - Duration: 2-3 minutes
   - Tone: gentle and supportive, addressing the user as "you"
   - Structure: Introduction → Main Practice → Conclusion
4. Special attention:
   - Do not include section headers, timestamps or narrator notes
   - Do not mention ratings, feedback or analysis

Please start directly with the guidance text, without any titles or explanatory text.`

func buildEnhancedPrompt(req Request, analysis *feedback.Analysis, history []feedback.UserFeedback) string {
	var b strings.Builder
	b.WriteString("You are a professional meditation guide. Create a personalized guided meditation for the user below.\n\n")

	b.WriteString("User Current State:\n")
	fmt.Fprintf(&b, "- Mood: %s\n", req.Mood)
	fmt.Fprintf(&b, "- Description: %s\n", req.Description)
	fmt.Fprintf(&b, "- User ID: %s\n\n", req.UserID)

	if analysis != nil {
		b.WriteString("User Feedback Analysis:\n")
		fmt.Fprintf(&b, "- Overall Satisfaction: %.2f\n", analysis.OverallSatisfaction)
		fmt.Fprintf(&b, "- Key Issues: %s\n", joinOrNone(analysis.KeyIssues))
		fmt.Fprintf(&b, "- Improvement Suggestions: %s\n", joinOrNone(analysis.ImprovementSuggestions))
		fmt.Fprintf(&b, "- User Preferences: %s\n", feedback.FormatPreferences(analysis.UserPreferences))
		fmt.Fprintf(&b, "- Optimization Guidance: %s\n\n", analysis.NextMeditationGuidance)
	}

	if len(history) > 0 {
		b.WriteString("User Feedback History:\n")
		for i, f := range history {
			if i == promptHistoryLimit {
				break
			}
			fmt.Fprintf(&b, "%d. Rating: %d/5 stars", i+1, f.Score)
			if f.Comment != "" {
				fmt.Fprintf(&b, ", Comment: %s", f.Comment)
			}
			fmt.Fprintf(&b, ", Mood: %s\n", f.Mood)
		}
		b.WriteString("\n")
	}

	b.WriteString(enhancedRequirements)
	return b.String()
}

func buildPlainPrompt(req Request, previousScript string) string {
	var b strings.Builder
	b.WriteString("Write a short guided meditation for someone with the following state.\n\n")
	fmt.Fprintf(&b, "Mood: %s\n", req.Mood)
	fmt.Fprintf(&b, "Situation: %s\n\n", req.Description)
	b.WriteString("Length: 1-3 minutes when read aloud (about 120-300 words).\n")
	b.WriteString("Structure: a breathing cue, a grounding step, a short imagery or body-scan practice, and a soft closing.\n")
	b.WriteString("Address the listener as \"you\". Use plain text only: no headers, lists, timestamps or stage directions.\n")
	if previousScript != "" {
		b.WriteString("\nThe listener already heard the meditation below. Write a new one with different imagery and wording:\n")
		b.WriteString(previousScript)
		b.WriteString("\n")
	}
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
