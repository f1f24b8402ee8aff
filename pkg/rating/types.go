// Package rating implements the rating ledger: CRUD and statistics over user
// ratings, plus the tag aggregates used for preference mining.
package rating

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// Score bounds.
const (
	MinScore = 1
	MaxScore = 5
)

// Kind is the category a rating applies to.
type Kind string

const (
	KindMeditation Kind = "meditation"
	KindMood       Kind = "mood"
	KindGeneral    Kind = "general"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMeditation, KindMood, KindGeneral:
		return true
	}
	return false
}

// ParseKind converts s into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown rating kind %q", s)
	}
	return k, nil
}

// Record is a single user rating.
//
// ID, UserID, Kind and CreatedAt never change after creation. UpdatedAt
// equals CreatedAt at insertion and only moves forward.
type Record struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Kind               Kind      `json:"kind"`
	Score              int       `json:"score"`
	Comment            string    `json:"comment,omitempty"`
	Tags               []string  `json:"feedback_tags,omitempty"`
	MeditationRecordID string    `json:"meditation_record_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateRequest holds the input of Ledger.Create.
type CreateRequest struct {
	UserID             string
	Kind               Kind
	Score              int
	Comment            string
	MeditationRecordID string
	Tags               []string
}

// UpdateRequest holds the input of Ledger.Update. Comment and Tags replace
// the stored values.
type UpdateRequest struct {
	Score   int
	Comment string
	Tags    []string
}

// ListOptions filters Ledger.List.
type ListOptions struct {
	// Kind filters by rating kind when non-empty.
	Kind Kind

	// Limit is clamped to [1, MaxListLimit]; zero selects DefaultListLimit.
	Limit int
}

// StatisticsOptions filters Ledger.Statistics. Empty fields match everything.
type StatisticsOptions struct {
	UserID string
	Kind   Kind

	// RecentLimit caps Statistics.Recent; zero selects DefaultRecentLimit
	// and values above MaxListLimit are clamped to it.
	RecentLimit int
}

// Statistics aggregates all matching ratings.
type Statistics struct {
	Total   int     `json:"total_ratings"`
	Average float64 `json:"average_score"`

	// Distribution always has the keys 1 through 5.
	Distribution map[int]int `json:"score_distribution"`

	// Recent holds the newest ratings, newest first.
	Recent []*Record `json:"recent_ratings"`
}

// TagStat is the running aggregate for one feedback tag.
type TagStat struct {
	Tag          string  `json:"tag"`
	Count        int     `json:"count"`
	TotalScore   int     `json:"total_score"`
	AverageScore float64 `json:"avg_score"`
}

// Preferences summarizes which feedback tags a user rates highly or poorly.
//
// Preferred holds tags with an average score of at least 4, Avoided tags with
// an average of at most 2. Both are ranked by descending count; equal counts
// fall back to the average (higher first for Preferred, lower first for
// Avoided) and then to lexical tag order. Emphasize and Avoid are the top
// five of each.
type Preferences struct {
	UserID    string             `json:"user_id"`
	Summary   map[string]TagStat `json:"feedback_summary"`
	Preferred []string           `json:"preferred_tags"`
	Avoided   []string           `json:"avoided_tags"`
	Emphasize []string           `json:"emphasize"`
	Avoid     []string           `json:"avoid"`
}

// HealthStatus is the result of Ledger.HealthCheck.
type HealthStatus struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"timestamp"`
}

// tagAggregate is the document stored for every rating that carries tags.
type tagAggregate struct {
	FeedbackID string    `json:"feedback_id"`
	RatingID   string    `json:"rating_id"`
	UserID     string    `json:"user_id"`
	Score      int       `json:"score"`
	Tags       []string  `json:"feedback_tags"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Processed  bool      `json:"processed"`
}

func toDocument(r *Record) (*storage.Document, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode rating: %w", err)
	}
	return &storage.Document{
		Collection: storage.CollectionRatings,
		ID:         r.ID,
		UserID:     r.UserID,
		Kind:       string(r.Kind),
		Body:       body,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func fromDocument(doc *storage.Document) (*Record, error) {
	var r Record
	if err := json.Unmarshal(doc.Body, &r); err != nil {
		return nil, fmt.Errorf("decode rating %s: %w", doc.ID, err)
	}
	if r.ID == "" {
		r.ID = doc.ID
	}
	return &r, nil
}

func aggregateToDocument(a *tagAggregate) (*storage.Document, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode tag aggregate: %w", err)
	}
	return &storage.Document{
		Collection: storage.CollectionUserFeedback,
		ID:         a.FeedbackID,
		UserID:     a.UserID,
		Body:       body,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.CreatedAt,
	}, nil
}

func aggregateFromDocument(doc *storage.Document) (*tagAggregate, error) {
	var a tagAggregate
	if err := json.Unmarshal(doc.Body, &a); err != nil {
		return nil, fmt.Errorf("decode tag aggregate %s: %w", doc.ID, err)
	}
	return &a, nil
}
