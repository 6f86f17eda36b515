package main

import (
	"context"
	"fmt"

	"github.com/jpo-explorer/backend/internal/adapters/cache"
	"github.com/jpo-explorer/backend/internal/adapters/database"
	"github.com/jpo-explorer/backend/internal/application/services"
	"github.com/jpo-explorer/backend/internal/domain/providers"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/gemini"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/llm"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/openai"
	redisclient "github.com/jpo-explorer/backend/internal/infrastructure/clients/redis"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/sqldb"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
	"github.com/jpo-explorer/backend/pkg/config"
)

const redisKeyPrefix = "jpo:"

// languageModel bundles the chat completer with the optional embedder of the
// configured provider.
type languageModel struct {
	completer providers.ChatCompleter
	embedder  providers.Embedder
	close     func()
}

func newLanguageModel(ctx context.Context, cfg *config.LLMConfig) (*languageModel, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return &languageModel{completer: llm.NewOffline(), close: func() {}}, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &languageModel{completer: client, close: client.Close}, nil
	default:
		client, err := openai.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return &languageModel{completer: client, embedder: client, close: client.Close}, nil
	}
}

// app is the wired search stack shared by the serve, search, facets and mcp
// commands.
type app struct {
	store   *sqldb.Client
	redis   *redisclient.Client
	model   *languageModel
	metrics *observability.Metrics
	search  *services.SearchService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := observability.LoggerFromContext(ctx)
	a := &app{}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}
	a.metrics = metrics

	store, err := sqldb.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	a.store = store

	cacheOpts := []cache.Option{cache.WithMetrics(metrics)}
	if cfg.Redis.Enabled {
		rc, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, result cache is process-local")
		} else {
			a.redis = rc
			cacheOpts = append(cacheOpts, cache.WithRemote(cache.NewRedisAdapter(rc, redisKeyPrefix)))
		}
	}

	resultCache, err := cache.NewResultCache(cfg.Search.CacheCapacity, cfg.Search.CacheTTL, cacheOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	model, err := newLanguageModel(ctx, &cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.model = model

	extractor := services.NewIntentExtractor(model.completer, services.IntentExtractorConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		SampleSize:  cfg.Search.SampleSize,
	})

	a.search = services.NewSearchService(
		database.NewRecordAdapter(store, metrics),
		extractor,
		resultCache,
		services.WithSingleFlight(cfg.Search.SingleFlight),
		services.WithSearchMetrics(metrics),
	)

	logger.Info().
		Str("llm_provider", cfg.LLM.Provider).
		Str("llm_model", cfg.LLM.Model).
		Str("db_driver", cfg.Database.Driver).
		Bool("redis", a.redis != nil).
		Msg("search stack ready")
	return a, nil
}

// Close releases every connection the app opened.
func (a *app) Close() {
	if a.model != nil {
		a.model.close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
