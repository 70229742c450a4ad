package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"echelon-backend/internal/config"
	"echelon-backend/internal/database"
	"echelon-backend/internal/handlers"
	"echelon-backend/internal/logger"
	"echelon-backend/internal/middleware"
	"echelon-backend/internal/repository"
	"echelon-backend/internal/router"
	"echelon-backend/internal/services"
	"echelon-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging configuration: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("env", cfg.Env).Msg("starting Echelon backend")

	deps := router.Deps{
		Logger:          log,
		FrontendURL:     cfg.FrontendURL,
		ChatRatePerMin:  cfg.ChatRatePerMin,
		JWTAuth:         middleware.NewJWTAuth(cfg.SupabaseJWTSecret),
		StoreMissing:    cfg.Missing(config.FeatureStore),
		RealtimeMissing: cfg.Missing(config.FeatureRealtime),
	}
	warnMissing(log, cfg, config.FeatureAuth)

	// ──── Step 2: Completion Provider ────
	completer, closeCompleter := newCompleter(log, cfg)
	defer closeCompleter()
	deps.Chat = handlers.NewChatHandler(services.NewChatService(completer, cfg.Missing(config.FeatureChat)))

	// ──── Step 3: Redis (live updates) ────
	var events *services.EventPublisher
	if len(deps.RealtimeMissing) == 0 {
		rdb, err := database.OpenRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()

		events = services.NewEventPublisher(rdb)
		deps.Hub = websocket.NewHub(websocket.NewRedisFeed(rdb), deps.JWTAuth)
		log.Info().Msg("redis connected")
	} else {
		warnMissing(log, cfg, config.FeatureRealtime)
	}

	// ──── Step 4: PostgreSQL + Migrations ────
	if len(deps.StoreMissing) == 0 {
		pool, err := database.OpenPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pool.Close()

		applied, err := database.Migrate(context.Background(), pool, os.DirFS(cfg.MigrationsPath))
		if err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
		log.Info().Int("applied", applied).Msg("postgres connected, migrations up to date")

		deps.Conversations = handlers.NewConversationHandler(repository.NewConversationRepo(pool), events)
		deps.Tasks = handlers.NewTaskHandler(repository.NewTaskRepo(pool))
		deps.Analytics = handlers.NewAnalyticsHandler(services.NewAnalyticsService(repository.NewAnalyticsRepo(pool)))
	} else {
		warnMissing(log, cfg, config.FeatureStore)
	}

	// ──── Step 5: Start HTTP Server ────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info().
		Str("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)).
		Str("ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port)).
		Msg("Echelon backend ready")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}

// newCompleter builds the configured completion provider. A missing key
// yields a nil Completer and the chat route answers 503.
func newCompleter(log zerolog.Logger, cfg *config.Config) (services.Completer, func()) {
	if len(cfg.Missing(config.FeatureChat)) > 0 {
		warnMissing(log, cfg, config.FeatureChat)
		return nil, func() {}
	}

	opts := services.CompletionOptions{MaxTokens: cfg.ChatMaxTokens, Temperature: float32(cfg.ChatTemperature)}

	if cfg.LLMProvider == "gemini" {
		opts.Model = cfg.GeminiModel
		gemini, err := services.NewGeminiCompleter(context.Background(), cfg.GeminiAPIKey, opts)
		if err != nil {
			log.Error().Err(err).Msg("gemini client initialization failed; chat disabled")
			return nil, func() {}
		}
		log.Info().Str("model", opts.Model).Msg("gemini completer ready")
		return gemini, gemini.Close
	}

	opts.Model = cfg.OpenAIModel
	log.Info().Str("model", opts.Model).Msg("openai completer ready")
	return services.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, opts), func() {}
}

func warnMissing(log zerolog.Logger, cfg *config.Config, feature string) {
	if missing := cfg.Missing(feature); len(missing) > 0 {
		log.Warn().Str("feature", feature).Strs("missing", missing).Msg("feature disabled until configured")
	}
}
