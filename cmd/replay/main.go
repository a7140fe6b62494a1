package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/loopware/billing-webhook/internal/config"
	"github.com/loopware/billing-webhook/internal/infrastructure/database"
	"github.com/loopware/billing-webhook/internal/infrastructure/provider/recurly"
	"github.com/loopware/billing-webhook/internal/logger"
	"github.com/loopware/billing-webhook/internal/usecase"
	"go.uber.org/zap"
)

// Replays the unprocessed webhook backlog (received and failed rows)
// through the same pipeline the server runs. Meant to be invoked by an
// operator after an outage or a fixed bug; safe to re-run because the
// pipeline is idempotent.
func main() {
	// Load .env if present, real environments set variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger. The replay report goes to stdout as JSON no
	// matter how the server is configured to log.
	zapLogger := logger.DefaultZapLogger()
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Build the pipeline
	resolver := recurly.NewClient(cfg.Recurly, zapLogger)
	attribution := usecase.NewPaymentAttributionService(
		repos.SignupAttempt,
		repos.WebhookEvent,
		resolver,
		zapLogger,
		cfg.Service.AttributionWindow,
	)
	subscriptionSync := usecase.NewSubscriptionSyncService(
		repos.Subscription,
		repos.Shop,
		repos.WebhookEvent,
		resolver,
		zapLogger,
	)
	replay := usecase.NewEventReplayService(repos.WebhookEvent, attribution, subscriptionSync, zapLogger)

	ctx := context.Background()

	summary, err := replay.ReplayUnprocessed(ctx, 0)
	if err != nil {
		zapLogger.Fatal("Replay failed", zap.Error(err))
	}

	fields := []zap.Field{zap.Int("total", summary.Total)}
	for outcome, count := range summary.Outcomes {
		fields = append(fields, zap.Int(string(outcome), count))
	}
	zapLogger.Info("Replay completed", fields...)
}
