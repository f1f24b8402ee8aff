// Package google implements speech.Synthesizer with Google Cloud
// Text-to-Speech and stores the audio in Google Cloud Storage.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mindtuner/mindtuner-go/pkg/speech"
)

const audioContentType = "audio/mpeg"

// ErrMissingBucket is returned when no bucket is configured.
var ErrMissingBucket = errors.New("speech: bucket is required")

// renderer produces MP3 audio for text.
type renderer interface {
	render(ctx context.Context, text string) ([]byte, error)
	close() error
}

// uploader stores an object and reports its public URL.
type uploader interface {
	upload(ctx context.Context, key string, data []byte) error
	publicURL(key string) string
	close() error
}

// Synthesizer voices text with Google Text-to-Speech.
type Synthesizer struct {
	cfg      speech.Config
	renderer renderer
	uploader uploader
	logger   *zap.Logger
}

var _ speech.Synthesizer = (*Synthesizer)(nil)

// ClientOptionsFromEnv reads service account credentials from
// GOOGLE_APPLICATION_CREDENTIALS_JSON (inline JSON) or
// GOOGLE_APPLICATION_CREDENTIALS (file path). With neither set the client
// falls back to application default credentials.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// NewSynthesizer creates a Synthesizer with clients built from the
// environment credentials.
func NewSynthesizer(ctx context.Context, cfg speech.Config, logger *zap.Logger) (*Synthesizer, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrMissingBucket
	}
	cfg = cfg.WithDefaults()

	opts := ClientOptionsFromEnv()
	ttsClient, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	stOpts := append(append([]option.ClientOption{}, opts...), option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, stOpts...)
	if err != nil {
		_ = ttsClient.Close()
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return newSynthesizer(cfg,
		&ttsRenderer{client: ttsClient, cfg: cfg},
		&gcsUploader{client: stClient, bucket: cfg.Bucket, cdnDomain: cfg.CDNDomain},
		logger,
	), nil
}

func newSynthesizer(cfg speech.Config, r renderer, u uploader, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		cfg:      cfg.WithDefaults(),
		renderer: r,
		uploader: u,
		logger:   logger.With(zap.String("component", "speech")),
	}
}

// Synthesize renders text to MP3, uploads it under
// meditations/{synthesisID}.mp3 and returns the public URL.
func (s *Synthesizer) Synthesize(ctx context.Context, text, synthesisID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", speech.ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	audio, err := s.renderer.render(ctx, text)
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}

	key := speech.ObjectKey(synthesisID)
	if err := s.uploader.upload(ctx, key, audio); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}

	audioURL := s.uploader.publicURL(key)
	s.logger.Debug("audio stored",
		zap.String("synthesis_id", synthesisID),
		zap.Int("bytes", len(audio)),
		zap.String("url", audioURL))
	return audioURL, nil
}

// Close releases both clients.
func (s *Synthesizer) Close() error {
	return errors.Join(s.renderer.close(), s.uploader.close())
}

type ttsRenderer struct {
	client *texttospeech.Client
	cfg    speech.Config
}

func (r *ttsRenderer) render(ctx context.Context, text string) ([]byte, error) {
	resp, err := r.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: r.cfg.LanguageCode,
			Name:         r.cfg.VoiceName,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  r.cfg.SpeakingRate,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, errors.New("empty audio content")
	}
	return resp.GetAudioContent(), nil
}

func (r *ttsRenderer) close() error { return r.client.Close() }

type gcsUploader struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func (u *gcsUploader) upload(ctx context.Context, key string, data []byte) error {
	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = audioContentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (u *gcsUploader) publicURL(key string) string {
	return publicURL(u.bucket, u.cdnDomain, key)
}

func (u *gcsUploader) close() error { return u.client.Close() }

func publicURL(bucket, cdnDomain, key string) string {
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", strings.TrimSuffix(cdnDomain, "/"), key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
