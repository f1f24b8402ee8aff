package core

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/mindtuner/mindtuner-go/pkg/feedback"
	"github.com/mindtuner/mindtuner-go/pkg/llm"
	deepseekLLM "github.com/mindtuner/mindtuner-go/pkg/llm/deepseek"
	ollamaLLM "github.com/mindtuner/mindtuner-go/pkg/llm/ollama"
	openaiLLM "github.com/mindtuner/mindtuner-go/pkg/llm/openai"
	"github.com/mindtuner/mindtuner-go/pkg/meditation"
	"github.com/mindtuner/mindtuner-go/pkg/personalize"
	"github.com/mindtuner/mindtuner-go/pkg/rating"
	"github.com/mindtuner/mindtuner-go/pkg/speech"
	googleSpeech "github.com/mindtuner/mindtuner-go/pkg/speech/google"
	"github.com/mindtuner/mindtuner-go/pkg/storage"
	"github.com/mindtuner/mindtuner-go/pkg/storage/memory"
	mysqlStore "github.com/mindtuner/mindtuner-go/pkg/storage/mysql"
	postgresStore "github.com/mindtuner/mindtuner-go/pkg/storage/postgres"
	sqliteStore "github.com/mindtuner/mindtuner-go/pkg/storage/sqlite"
)

// Client is the MindTuner entry point. It owns the record store, the text
// generator and the optional speech synthesizer, and exposes the rating
// ledger, the meditation repository and the personalization orchestrator
// built on top of them.
//
// The client is safe for concurrent use.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(ctx, config)
//	defer client.Close()
//
//	res, err := client.Personalizer().GenerateEnhanced(ctx, personalize.Request{
//	    UserID:      "user_001",
//	    Mood:        "anxious",
//	    Description: "overwhelmed at work",
//	})
type Client struct {
	config *Config
	logger *zap.Logger

	store       storage.RecordStore
	llm         llm.Provider
	synthesizer speech.Synthesizer

	// owned marks the components NewClient built itself. Injected ones stay
	// open on Close and on construction failure; their caller owns them.
	owned ownership

	meditations  *meditation.Repository
	ledger       *rating.Ledger
	analyzer     *feedback.Analyzer
	orchestrator *personalize.Orchestrator
}

// NewClient creates a new MindTuner client.
//
// The client is initialized with:
//   - Record store (memory, SQLite, PostgreSQL or MySQL)
//   - LLM provider (OpenAI, DeepSeek or Ollama), wrapped with a timeout and rate limit
//   - Speech synthesizer (Google Text-to-Speech, if enabled)
//
// Parameters:
//   - ctx: Context used while creating cloud clients
//   - cfg: Configuration
//   - opts: Components that replace the configured ones
//
// Returns a new Client instance, or an error if initialization fails.
func NewClient(ctx context.Context, cfg *Config, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{nodeID: 1}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.validate(o.store != nil, o.provider != nil); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	node, err := snowflake.NewNode(o.nodeID)
	if err != nil {
		return nil, NewError("NewClient", err)
	}

	c := &Client{config: cfg, logger: logger}

	c.store = o.store
	if c.store == nil {
		if c.store, err = initStorage(cfg.Database); err != nil {
			return nil, err
		}
		c.owned.store = true
	}

	provider := o.provider
	if provider == nil {
		if provider, err = initLLM(cfg.LLM); err != nil {
			_ = c.Close()
			return nil, err
		}
		c.owned.llm = true
	}
	c.llm = llm.NewGuard(provider, llm.GuardConfig{
		Timeout:       cfg.LLM.Timeout(),
		RatePerSecond: cfg.LLM.RateLimit,
	})

	c.synthesizer = o.synthesizer
	if c.synthesizer == nil && cfg.Speech.Enabled {
		synth, err := googleSpeech.NewSynthesizer(ctx, cfg.Speech.SynthesizerConfig(), logger)
		if err != nil {
			_ = c.Close()
			return nil, NewError("NewClient", err)
		}
		c.synthesizer = synth
		c.owned.synthesizer = true
	}

	c.meditations = meditation.NewRepository(c.store)

	c.ledger, err = rating.NewLedger(c.store, c.meditations,
		rating.WithLogger(logger.Named("ledger")),
		rating.WithNode(node),
	)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.analyzer = feedback.NewAnalyzer(c.llm, feedback.WithLogger(logger.Named("feedback")))

	orchOpts := []personalize.Option{
		personalize.WithLogger(logger.Named("personalize")),
		personalize.WithNode(node),
	}
	if c.synthesizer != nil {
		orchOpts = append(orchOpts, personalize.WithSynthesizer(c.synthesizer))
	}
	c.orchestrator, err = personalize.NewOrchestrator(c.ledger, c.meditations, c.analyzer, c.llm, orchOpts...)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() *Config { return c.config }

// Ratings returns the rating ledger.
func (c *Client) Ratings() *rating.Ledger { return c.ledger }

// Meditations returns the meditation record repository.
func (c *Client) Meditations() *meditation.Repository { return c.meditations }

// Personalizer returns the personalization orchestrator.
func (c *Client) Personalizer() *personalize.Orchestrator { return c.orchestrator }

// Analyzer returns the feedback analyzer.
func (c *Client) Analyzer() *feedback.Analyzer { return c.analyzer }

// SpeechEnabled reports whether generated scripts are voiced.
func (c *Client) SpeechEnabled() bool { return c.synthesizer != nil }

// HealthCheck pings the record store and runs the ledger's write probe.
func (c *Client) HealthCheck(ctx context.Context) *rating.HealthStatus {
	if err := c.store.Ping(ctx); err != nil {
		c.logger.Warn("record store ping failed", zap.Error(err))
	}
	return c.ledger.HealthCheck(ctx)
}

// Close releases the store, the LLM provider and the synthesizer that the
// client created. Components passed in with WithStore, WithProvider or
// WithSynthesizer are left open.
func (c *Client) Close() error {
	var errs []error
	if c.store != nil && c.owned.store {
		errs = append(errs, c.store.Close())
	}
	if c.llm != nil && c.owned.llm {
		errs = append(errs, c.llm.Close())
	}
	if closer, ok := c.synthesizer.(io.Closer); ok && c.owned.synthesizer {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

type ownership struct {
	store       bool
	llm         bool
	synthesizer bool
}

// initStorage initializes the record store backend.
func initStorage(cfg DatabaseConfig) (storage.RecordStore, error) {
	switch cfg.Provider {
	case DatabaseMemory:
		return memory.New(), nil
	case DatabaseSQLite:
		store, err := sqliteStore.NewClient(&sqliteStore.Config{
			DBPath:    cfg.SQLite.Path,
			TableName: cfg.SQLite.Table,
		})
		if err != nil {
			return nil, NewError("initStorage", err)
		}
		return store, nil
	case DatabasePostgres:
		store, err := postgresStore.NewClient(&postgresStore.Config{
			Host:      cfg.Postgres.Host,
			Port:      cfg.Postgres.Port,
			User:      cfg.Postgres.User,
			Password:  cfg.Postgres.Password,
			DBName:    cfg.Postgres.Database,
			TableName: cfg.Postgres.Table,
			SSLMode:   cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, NewError("initStorage", err)
		}
		return store, nil
	case DatabaseMySQL:
		store, err := mysqlStore.NewClient(&mysqlStore.Config{
			Host:      cfg.MySQL.Host,
			Port:      cfg.MySQL.Port,
			User:      cfg.MySQL.User,
			Password:  cfg.MySQL.Password,
			DBName:    cfg.MySQL.Database,
			TableName: cfg.MySQL.Table,
		})
		if err != nil {
			return nil, NewError("initStorage", err)
		}
		return store, nil
	default:
		return nil, NewError("initStorage", ErrInvalidConfig)
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case LLMOpenAI:
		p, err := openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, NewError("initLLM", err)
		}
		return p, nil
	case LLMDeepSeek:
		p, err := deepseekLLM.NewClient(&deepseekLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, NewError("initLLM", err)
		}
		return p, nil
	case LLMOllama:
		p, err := ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, NewError("initLLM", err)
		}
		return p, nil
	default:
		return nil, NewError("initLLM", ErrInvalidConfig)
	}
}
