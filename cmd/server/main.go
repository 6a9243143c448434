package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sotc/backend/config"
	httpDelivery "github.com/sotc/backend/internal/delivery/http"
	"github.com/sotc/backend/internal/domain"
	"github.com/sotc/backend/internal/infrastructure/anthropic"
	"github.com/sotc/backend/internal/infrastructure/cardstore"
	"github.com/sotc/backend/internal/infrastructure/catalog"
	"github.com/sotc/backend/internal/usecase"
)

// cardStore is a card repository that owns resources
type cardStore interface {
	domain.CardRepository
	io.Closer
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Size of the Collection Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Card Store: %s (ttl %s)", cfg.Cards.Store, cfg.Cards.TTL)

	// Initialize infrastructure dependencies
	store, err := newCardStore(cfg.Cards)
	if err != nil {
		log.Fatalf("Failed to open card store: %v", err)
	}
	defer store.Close()

	images, err := catalog.Load(cfg.Catalog.ImagesFile)
	if err != nil {
		log.Fatalf("Failed to load image catalog: %v", err)
	}
	log.Printf("Image catalog: %d models", images.Len())

	classifier := usecase.DefaultTierClassifier()
	if cfg.Classification.PatternsFile != "" {
		classifier, err = usecase.LoadTierClassifier(cfg.Classification.PatternsFile)
		if err != nil {
			log.Fatalf("Failed to load tier patterns: %v", err)
		}
		log.Printf("Tier patterns loaded from %s", cfg.Classification.PatternsFile)
	}

	visionClient := anthropic.NewClient(anthropic.ClientConfig{
		APIKey:         cfg.Anthropic.APIKey,
		BaseURL:        cfg.Anthropic.BaseURL,
		Model:          cfg.Anthropic.Model,
		MaxTokens:      cfg.Anthropic.MaxTokens,
		RequestsPerMin: cfg.Anthropic.RequestsPerMin,
		Timeout:        cfg.Anthropic.Timeout,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		visionClient.SetDebug(true)
		log.Printf("Vision client debug mode enabled")
	}
	log.Printf("Vision model: %s (key: %s...)", cfg.Anthropic.Model, keyPrefix(cfg.Anthropic.APIKey))

	strategy, err := usecase.ParseChipStrategy(cfg.Card.ChipStrategy)
	if err != nil {
		log.Fatalf("Invalid chip strategy: %v", err)
	}

	// Initialize usecase layer
	analysisService := usecase.NewAnalysisService(visionClient, store, images)
	cardService := usecase.NewCardService(store, classifier, usecase.CardServiceConfig{
		Strategy:     strategy,
		DefaultWidth: cfg.Card.Width,
	})

	log.Printf("Cards: strategy=%s, width=%d; rate limit: %d per %s",
		strategy, cfg.Card.Width, cfg.RateLimit.PerIP, cfg.RateLimit.Window)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(analysisService, cardService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Printf("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func newCardStore(cfg config.CardsConfig) (cardStore, error) {
	switch cfg.Store {
	case "sqlite":
		return cardstore.NewSQLiteStore(cardstore.SQLiteConfig{
			Path:          cfg.SQLitePath,
			TTL:           cfg.TTL,
			PurgeSchedule: cfg.PurgeSchedule,
		})
	default:
		return cardstore.NewMemoryStore(cfg.TTL), nil
	}
}

func keyPrefix(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8]
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
