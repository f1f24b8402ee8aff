package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in response")

// contentAnalysis is the structured part of an analysis reply.
type contentAnalysis struct {
	KeyIssues              []string
	ImprovementSuggestions []string
	UserPreferences        Preferences
}

type analysisPayload struct {
	KeyIssues              []string                   `json:"key_issues"`
	ImprovementSuggestions []string                   `json:"improvement_suggestions"`
	UserPreferences        map[string]json.RawMessage `json:"user_preferences"`
}

// parseAnalysis decodes the JSON object embedded in a generator reply. The
// object spans from the first '{' to the last '}'; any text around it, such
// as a code fence, is ignored.
func parseAnalysis(raw string) (*contentAnalysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errNoJSONObject
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	prefs := Preferences{}
	for k, v := range payload.UserPreferences {
		prefs[k] = preferenceText(v)
	}
	fillDefaultPreferences(prefs)

	return &contentAnalysis{
		KeyIssues:              nonNil(payload.KeyIssues),
		ImprovementSuggestions: nonNil(payload.ImprovementSuggestions),
		UserPreferences:        prefs,
	}, nil
}

// preferenceText renders a preference value as text. Generators sometimes
// answer with lists or numbers instead of strings.
func preferenceText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return strings.TrimSpace(string(v))
}

// heuristicAnalysis is the deterministic analysis used when the generator is
// unreachable or its reply cannot be decoded.
func heuristicAnalysis(score int) *contentAnalysis {
	var issues, suggestions []string
	switch {
	case score <= 2:
		issues = []string{"insufficient personalization", "guidance style may not fit"}
		suggestions = []string{"increase personalization", "adjust tone"}
	case score == 3:
		issues = []string{"content quality needs improvement"}
		suggestions = []string{"optimize structure", "increase practicality"}
	default:
		issues = []string{}
		suggestions = []string{"maintain style", "fine-tune personalization"}
	}

	return &contentAnalysis{
		KeyIssues:              issues,
		ImprovementSuggestions: suggestions,
		UserPreferences:        defaultPreferences(),
	}
}

func defaultPreferences() Preferences {
	return Preferences{
		PrefContentStyle:         "infer user preferences based on rating",
		PrefGuidanceTone:         "gentle guidance",
		PrefDurationPreference:   "moderate",
		PrefPersonalizationLevel: "medium",
	}
}

func fillDefaultPreferences(p Preferences) {
	for k, v := range defaultPreferences() {
		if strings.TrimSpace(p[k]) == "" {
			p[k] = v
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
