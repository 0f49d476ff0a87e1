package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/BatmanBruc/bat-bot-merger/internal/audit"
	"github.com/BatmanBruc/bat-bot-merger/internal/config"
	"github.com/BatmanBruc/bat-bot-merger/internal/engine"
	"github.com/BatmanBruc/bat-bot-merger/internal/handlers"
	"github.com/BatmanBruc/bat-bot-merger/internal/janitor"
	"github.com/BatmanBruc/bat-bot-merger/internal/middleware"
	"github.com/BatmanBruc/bat-bot-merger/internal/orchestrator"
	"github.com/BatmanBruc/bat-bot-merger/internal/policy"
	"github.com/BatmanBruc/bat-bot-merger/internal/transfer"
	"github.com/BatmanBruc/bat-bot-merger/store"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func main() {
	_ = config.LoadEnvFile("config.env")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rdb, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "bot_merger")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	sessions := store.NewSessionStore(rdb, cfg.SessionTTLHours)

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()

	httpClient := &http.Client{
		Timeout: 10 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	pipeline := transfer.NewPipeline(b, cfg.TempDir)
	merger := engine.NewFFmpeg()
	sink := audit.NewChannelSink(b, cfg.LogChannelID)

	orch := orchestrator.New(sessions, pipeline, merger, sink, orchestrator.Config{
		TempDir:      cfg.TempDir,
		MinFreeBytes: config.MinFreeDiskBytes,
		TaskTimeout:  cfg.TaskTimeout,
	})

	cleaner := janitor.New(pgStore, janitor.Config{
		TempDir: cfg.TempDir,
	})
	cleaner.Start()
	defer cleaner.Stop()

	tiers := policy.NewResolver(pgStore)
	h := handlers.NewHandlers(sessions, pgStore, pgStore, tiers, orch, cfg)

	middlewares := middleware.NewMessageAnalyzer(pgStore)
	handlerChain := middlewares.UpsertUserMiddleware(
		middlewares.AnalyzeMessageMiddleware(
			h.MainHandler,
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	log.Println("Bot started. Press Ctrl+C to stop.")
	b.Start(ctx)
}
