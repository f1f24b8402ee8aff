// Package feedback turns a user's ratings into a structured analysis that
// guides the next meditation generation.
package feedback

import "time"

// UserFeedback is a rating joined with the meditation record it rated.
// It is built on demand and never stored.
type UserFeedback struct {
	UserID       string    `json:"user_id"`
	Score        int       `json:"rating_score"`
	Comment      string    `json:"rating_comment,omitempty"`
	MeditationID string    `json:"meditation_id"`
	Mood         string    `json:"mood"`
	Context      string    `json:"context"`
	CreatedAt    time.Time `json:"created_at"`
}

// Preference dimensions always present in Analysis.UserPreferences.
const (
	PrefContentStyle         = "content_style"
	PrefGuidanceTone         = "guidance_tone"
	PrefDurationPreference   = "duration_preference"
	PrefPersonalizationLevel = "personalization_level"
)

// Preferences maps a preference dimension to a free-text description.
type Preferences map[string]string

// Analysis is the result of analyzing one feedback against its history.
type Analysis struct {
	// OverallSatisfaction is a recency-weighted blend in [0, 1].
	OverallSatisfaction float64 `json:"overall_satisfaction"`

	KeyIssues              []string    `json:"key_issues"`
	ImprovementSuggestions []string    `json:"improvement_suggestions"`
	UserPreferences        Preferences `json:"user_preferences"`

	// NextMeditationGuidance is free text for the next generation prompt.
	NextMeditationGuidance string `json:"next_meditation_guidance"`

	// Fallback reports whether the content analysis came from the local
	// heuristic instead of the text generator.
	Fallback bool `json:"fallback"`
}
