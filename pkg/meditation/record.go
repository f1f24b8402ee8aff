// Package meditation holds the persisted meditation record and the repository
// that maps it onto the record store.
package meditation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// EstimatedDuration is the target length of every generated script.
const EstimatedDuration = "2-3 minutes"

// Record is a generated meditation script and everything known about it.
//
// Generation and synthesis are independent outcomes: a record whose audio
// synthesis failed is still persisted, with AudioURL empty.
type Record struct {
	// ID is the opaque record identifier.
	ID string `json:"id"`

	// UserID identifies the user the script was generated for.
	UserID string `json:"user_id"`

	// Mood is the mood the user reported.
	Mood string `json:"mood"`

	// Context is the free-text description the user gave.
	Context string `json:"context"`

	// Script is the final, post-processed meditation text.
	Script string `json:"script"`

	// IsRegenerated marks a script produced by regenerating an earlier record.
	IsRegenerated bool `json:"is_regenerated"`

	// PreviousRecordID and PreviousScript are set when IsRegenerated is true.
	PreviousRecordID string `json:"previous_record_id,omitempty"`
	PreviousScript   string `json:"previous_script,omitempty"`

	// Score is the 1-5 rating, nil until the record is rated.
	Score *int `json:"score,omitempty"`

	// Feedback is the rating comment.
	Feedback string `json:"feedback,omitempty"`

	// FeedbackTags are the tags attached to the rating.
	FeedbackTags []string `json:"feedback_tags,omitempty"`

	// IsRated reports whether a rating has been applied.
	IsRated bool `json:"is_rated"`

	// RatedAt is when the rating was applied.
	RatedAt *time.Time `json:"rated_at,omitempty"`

	// AudioURL is the public URL of the synthesized audio. Empty means absent.
	AudioURL string `json:"audio_url,omitempty"`

	// FeedbackOptimized marks scripts generated with feedback analysis in the prompt.
	FeedbackOptimized bool `json:"feedback_optimized"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAudio reports whether the record carries an audio URL.
func (r *Record) HasAudio() bool {
	return r.AudioURL != ""
}

// Rating is the slice of a rating that is copied onto the linked record.
type Rating struct {
	Score   int
	Comment string
	Tags    []string
	RatedAt time.Time
}

func toDocument(r *Record) (*storage.Document, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode meditation record: %w", err)
	}
	return &storage.Document{
		Collection: storage.CollectionMeditations,
		ID:         r.ID,
		UserID:     r.UserID,
		Body:       body,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func fromDocument(doc *storage.Document) (*Record, error) {
	var r Record
	if err := json.Unmarshal(doc.Body, &r); err != nil {
		return nil, fmt.Errorf("decode meditation record %s: %w", doc.ID, err)
	}
	if r.ID == "" {
		r.ID = doc.ID
	}
	return &r, nil
}
