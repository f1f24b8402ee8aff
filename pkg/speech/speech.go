// Package speech defines the speech synthesizer used to voice generated
// meditation scripts.
package speech

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one synthesis, upload included.
const DefaultTimeout = 30 * time.Second

// Voice defaults.
const (
	DefaultLanguageCode = "en-US"
	DefaultVoiceName    = "en-US-Standard-A"
	DefaultSpeakingRate = 0.9
)

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("speech: empty text")

	// ErrInvalidURL is returned when a synthesizer produced an unusable URL.
	ErrInvalidURL = errors.New("speech: invalid audio url")
)

// Synthesizer turns text into audio and returns a durable public URL.
type Synthesizer interface {
	// Synthesize voices text. synthesisID names the stored audio object.
	Synthesize(ctx context.Context, text, synthesisID string) (string, error)
}

// Config holds voice and locale parameters.
type Config struct {
	LanguageCode string  `json:"language_code" yaml:"language_code"`
	VoiceName    string  `json:"voice_name" yaml:"voice_name"`
	SpeakingRate float64 `json:"speaking_rate" yaml:"speaking_rate"`

	// Bucket is the object storage bucket receiving the audio.
	Bucket string `json:"bucket" yaml:"bucket"`

	// CDNDomain, when set, replaces the storage host in public URLs.
	CDNDomain string `json:"cdn_domain" yaml:"cdn_domain"`

	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// WithDefaults returns a copy of c with zero fields set to defaults.
func (c Config) WithDefaults() Config {
	if c.LanguageCode == "" {
		c.LanguageCode = DefaultLanguageCode
	}
	if c.VoiceName == "" {
		c.VoiceName = DefaultVoiceName
	}
	if c.SpeakingRate <= 0 {
		c.SpeakingRate = DefaultSpeakingRate
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// ObjectKey is the storage key for a synthesis.
func ObjectKey(synthesisID string) string {
	return "meditations/" + synthesisID + ".mp3"
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return errors.Join(ErrInvalidURL, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
