// Package personalize generates meditation scripts tailored to a user's
// feedback history and persists them as meditation records.
package personalize

import (
	"time"

	"github.com/mindtuner/mindtuner-go/pkg/feedback"
)

// StatusSuccess is the status of every successful Result.
const StatusSuccess = "success"

// Feedback window sizes.
const (
	// feedbackLookback is how many recent ratings are considered.
	feedbackLookback = 20

	// analysisWindow is the newest entry plus up to four priors.
	analysisWindow = 5

	// promptHistoryLimit caps the feedback entries listed in the prompt.
	promptHistoryLimit = 5

	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// Request asks for a new meditation.
type Request struct {
	UserID      string `json:"user_id"`
	Mood        string `json:"mood"`
	Description string `json:"description"`
}

// Metadata describes how a script was produced.
type Metadata struct {
	Mood              string    `json:"mood"`
	Description       string    `json:"description"`
	EstimatedDuration string    `json:"estimated_duration"`
	GeneratedAt       time.Time `json:"generated_at"`
	FeedbackOptimized bool      `json:"feedback_optimized"`
	FeedbackCount     int       `json:"user_feedback_count"`
}

// Result is the outcome of a successful generation.
type Result struct {
	Status   string `json:"status"`
	RecordID string `json:"record_id"`
	Script   string `json:"script"`

	// AudioURL is empty when synthesis was skipped or failed.
	AudioURL string   `json:"audio_url,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// UserAnalysis is a user's feedback summary.
type UserAnalysis struct {
	HasFeedback    bool                   `json:"has_feedback"`
	FeedbackCount  int                    `json:"feedback_count"`
	LatestFeedback *feedback.UserFeedback `json:"latest_feedback,omitempty"`
	Analysis       *feedback.Analysis     `json:"analysis,omitempty"`
}
