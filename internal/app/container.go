package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taste-match/internal/ai"
	"taste-match/internal/ai/gemini"
	"taste-match/internal/ai/secondme"
	"taste-match/internal/config"
	"taste-match/internal/database"
	dbpostgres "taste-match/internal/database/postgres"
	"taste-match/internal/icebreaker"
	"taste-match/internal/infrastructure/cache"
	"taste-match/internal/pkg/jwt"
	"taste-match/internal/repository"
	"taste-match/internal/usecase"

	"go.uber.org/zap"
)

type Container struct {
	Config config.Config
	Logger *zap.Logger
	DB     database.DB
	Cache  *cache.Redis
	JWT    jwt.Service

	Matches usecase.MatchUsecase
	DNA     usecase.DNAUsecase
}

func NewContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	streamer, err := newStreamer(ctx, cfg.AI, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Cache:  cache.NewRedis(cfg.Redis, logger.Named("cache")),
		JWT:    jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn),
	}
	c.wireUsecases(streamer)
	return c, nil
}

func (c *Container) wireUsecases(streamer ai.Streamer) {
	profiles := repository.NewPostgresProfileRepository(c.DB)

	c.Matches = usecase.NewMatchUsecase(usecase.MatchDeps{
		Profiles: profiles,
		Matches:  repository.NewPostgresMatchRepository(c.DB),
		Wallet:   repository.NewPostgresWallet(c.DB),
		Icebreakers: icebreaker.NewGenerator(
			streamer,
			c.Config.AI.IcebreakerTimeout,
			c.Config.AI.MaxResponseBytes,
			c.Logger.Named("icebreaker"),
		),
		Cache:  c.Cache,
		Logger: c.Logger.Named("matches"),
	}, usecase.MatchSettings{
		UnlockCost:        c.Config.Match.UnlockCost,
		DiscoveryPageSize: c.Config.Match.DiscoveryPageSize,
		DiscoveryCooldown: c.Config.Match.DiscoveryCooldown,
		UnlockTimeout:     c.Config.Match.UnlockTimeout,
	})

	c.DNA = usecase.NewDNAUsecase(profiles, streamer, c.Cache, usecase.DNASettings{
		Timeout:  c.Config.AI.DNATimeout,
		MaxBytes: c.Config.AI.MaxResponseBytes,
		CacheTTL: c.Config.Redis.TTL,
	}, c.Logger.Named("dna"))
}

// newStreamer returns nil when no provider is configured; callers then use
// their deterministic fallbacks.
func newStreamer(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (ai.Streamer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderGemini:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			logger.Warn("gemini api key not set, text generation disabled")
			return nil, nil
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		logger.Info("text generation provider", zap.String("provider", config.ProviderGemini), zap.String("model", client.Model()))
		return client, nil
	case config.ProviderSecondMe, "":
		client := secondme.NewClient(cfg.SecondMeBaseURL, cfg.SecondMeAPIKey, &http.Client{}, logger.Named("secondme"))
		if client == nil {
			logger.Warn("secondme base url not set, text generation disabled")
			return nil, nil
		}
		logger.Info("text generation provider", zap.String("provider", config.ProviderSecondMe))
		return client, nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.Provider)
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("close cache failed", zap.Error(err))
		}
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
