package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/beefriend/beefriend-api/internal/auth"
	"github.com/beefriend/beefriend-api/internal/config"
	"github.com/beefriend/beefriend-api/internal/handlers"
	"github.com/beefriend/beefriend-api/internal/services"
	"github.com/beefriend/beefriend-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer store.Close()

	accounts := services.NewAccountService(store)
	goalService := services.NewGoalService(store)
	pairing := services.NewPairingService(store)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	var companion *services.Companion
	if cfg.CompanionEnabled() {
		companion = services.NewCompanion(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	} else {
		log.Println("LLM_API_KEY not set, companion chat disabled")
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	h := handlers.New(accounts, goalService, pairing, companion, tokens)
	h.Route(e, auth.Middleware(tokens))

	if cfg.LineEnabled() {
		bot, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelToken)
		if err != nil {
			log.Fatalf("Failed to create LINE bot client: %v", err)
		}
		webhookHandler := handlers.NewWebhookHandler(bot, cfg.LineChannelSecret, accounts, goalService, pairing, companion)
		e.POST("/webhook", webhookHandler.HandleWebhook)
	}

	log.Printf("Server starting on port %s (%s store)", cfg.Port, cfg.StoreBackend)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendMemory:
		log.Println("Using in-memory store, data is lost on restart")
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewFirestoreStore(cfg.ProjectID)
	}
}
