package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/config"
	"github.com/supergrader/grader-api/internal/database"
	"github.com/supergrader/grader-api/internal/handler"
	"github.com/supergrader/grader-api/internal/middleware"
	"github.com/supergrader/grader-api/internal/repository"
	"github.com/supergrader/grader-api/internal/router"
	"github.com/supergrader/grader-api/internal/service"
	"github.com/supergrader/grader-api/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Redis is only required when something is configured to use it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	jobStore, err := repository.NewJobStore(cfg.JobStoreBackend, redisClient, cfg.JobTTL, logger)
	if err != nil {
		log.Fatalf("failed to create job store: %v", err)
	}
	defer jobStore.Close()

	caveatStore, err := repository.NewCaveatStore(cfg.JobStoreBackend, redisClient, logger)
	if err != nil {
		log.Fatalf("failed to create caveat store: %v", err)
	}
	defer caveatStore.Close()

	llmClient, err := llm.New(llm.Config{
		Provider:        cfg.AIProvider,
		Model:           cfg.LLMModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		MaxTokens:       cfg.LLMMaxTokens,
		Temperature:     cfg.LLMTemperature,
		Timeout:         cfg.LLMTimeout,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	evaluator := service.NewEvaluator(llmClient, cfg.LLMMaxRetries, cfg.Grading.ParallelCalls, logger)
	preprocessor := service.NewPreprocessor(cfg.Preprocess, redisClient, logger)
	gradingService := service.NewGradingService(evaluator, preprocessor, jobStore, cfg.Grading, logger)
	feedbackService := service.NewFeedbackService(llmClient, caveatStore, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	gradingHandler := handler.NewGradingHandler(gradingService, validate, logger)
	jobHandler := handler.NewJobHandler(jobStore, logger)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler:  gradingHandler,
		JobHandler:      jobHandler,
		FeedbackHandler: feedbackHandler,
	})

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runJobSweeper(sweeperCtx, jobStore, cfg, logger)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// runJobSweeper periodically evicts job records older than the configured TTL.
func runJobSweeper(ctx context.Context, store repository.JobStore, cfg config.Config, logger zerolog.Logger) {
	interval := cfg.JobCleanupInterval
	if interval <= 0 {
		return
	}

	sweeperLogger := logger.With().Str("component", "job_sweeper").Logger()
	maxAgeSeconds := int(cfg.JobTTL / time.Second)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(ctx, maxAgeSeconds)
			if err != nil {
				sweeperLogger.Warn().Err(err).Msg("job cleanup sweep failed")
				continue
			}
			if removed > 0 {
				sweeperLogger.Info().Int("removed", removed).Msg("job cleanup sweep completed")
			}
		case <-ctx.Done():
			return
		}
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
