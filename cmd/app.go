package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/career-pilot/internal/ai/gemini"
	"github.com/spigell/career-pilot/internal/assistant"
	"github.com/spigell/career-pilot/internal/document"
	"github.com/spigell/career-pilot/internal/intent"
	"github.com/spigell/career-pilot/internal/jobsalary"
	"github.com/spigell/career-pilot/internal/profile"
	"github.com/spigell/career-pilot/internal/secrets"
	"github.com/spigell/career-pilot/internal/serpapi"
	"github.com/spigell/career-pilot/internal/session"

	"go.uber.org/zap"
)

const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

// newService wires the assistant and its session store from config. The returned
// function releases the store.
func newService(ctx context.Context, config *Config, logger *zap.Logger) (*assistant.Service, func(), error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set GEMINI_API_KEY, gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        config.Gemini.Model,
		Timeout:      config.Gemini.Timeout,
		MaxLogLength: config.Gemini.MaxLogLength,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating gemini generator: %w", err)
	}

	store, closeStore, err := newStore(ctx, config.Session, logger)
	if err != nil {
		return nil, nil, err
	}

	a := assistant.New(assistant.Deps{
		Extractor:  profile.NewExtractor(generator, logger.With(zap.String("component", "extractor"))),
		Classifier: intent.NewClassifier(generator, logger.With(zap.String("component", "classifier"))),
		Jobs:       serpapi.New(config.Jobs, logger),
		Salaries:   jobsalary.New(config.Salary, logger),
		Advisor:    generator,
		Renderer:   document.NewPDFRenderer(),
		ExportDir:  config.Export.Dir,
	}, logger)

	sessions := session.NewManager(store, logger)

	return assistant.NewService(a, sessions, logger), closeStore, nil
}

func newStore(ctx context.Context, cfg SessionConfig, logger *zap.Logger) (session.Store, func(), error) {
	switch backend := strings.ToLower(strings.TrimSpace(cfg.Backend)); backend {
	case "", backendMemory:
		logger.Debug("using in-memory session store", zap.Int("max_sessions", cfg.MaxSessions), zap.Duration("ttl", cfg.TTL))
		return session.NewMemoryStore(cfg.MaxSessions, cfg.TTL), func() {}, nil
	case backendRedis:
		redisCfg := cfg.Redis
		redisCfg.TTL = cfg.TTL

		store, err := session.NewRedisStore(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}

		logger.Debug("using redis session store", zap.String("addr", redisCfg.Addr), zap.Duration("ttl", cfg.TTL))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing redis session store", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}
