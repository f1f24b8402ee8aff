package core

import (
	"go.uber.org/zap"

	"github.com/mindtuner/mindtuner-go/pkg/llm"
	"github.com/mindtuner/mindtuner-go/pkg/speech"
	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// ClientOption is a function type for configuring NewClient.
//
// Options replace components that would otherwise be built from Config,
// which is how tests and embedding applications inject their own backends.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger      *zap.Logger
	store       storage.RecordStore
	provider    llm.Provider
	synthesizer speech.Synthesizer
	nodeID      int64
}

// WithLogger sets the logger shared by every component.
//
// Example:
//
//	logger, _ := core.NewLogger(cfg.Logging)
//	client, _ := core.NewClient(ctx, cfg, core.WithLogger(logger))
func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithStore uses store instead of the configured database.
func WithStore(store storage.RecordStore) ClientOption {
	return func(o *clientOptions) {
		o.store = store
	}
}

// WithProvider uses provider instead of the configured LLM. The provider is
// still wrapped with the configured timeout and rate limit.
func WithProvider(provider llm.Provider) ClientOption {
	return func(o *clientOptions) {
		o.provider = provider
	}
}

// WithSynthesizer uses s for speech synthesis regardless of Speech.Enabled.
func WithSynthesizer(s speech.Synthesizer) ClientOption {
	return func(o *clientOptions) {
		o.synthesizer = s
	}
}

// WithNodeID sets the snowflake node id (0-1023). Processes sharing a
// database must use distinct node ids.
func WithNodeID(id int64) ClientOption {
	return func(o *clientOptions) {
		o.nodeID = id
	}
}
