package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schnitzlab/curator/internal/api"
	"github.com/schnitzlab/curator/internal/config"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/repository"
	"github.com/schnitzlab/curator/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewFromEnv()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	sourceRepo := repository.NewSourceRepository(db)
	queryRepo := repository.NewQueryRepository(db)
	cooccurRepo := repository.NewCooccurrenceRepository(db)

	// Initialize external providers
	searchProvider := service.NewSerperService(&service.SerperConfig{
		APIKey:   cfg.Serper.APIKey,
		BaseURL:  cfg.Serper.BaseURL,
		Country:  cfg.Serper.Country,
		Language: cfg.Serper.Language,
	})
	gemini := service.NewGeminiService(&service.GeminiConfig{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		MetadataModel:  cfg.Gemini.MetadataModel,
		ExpansionModel: cfg.Gemini.ExpansionModel,
	})
	fetcher := service.NewHTTPFetcher()

	// Initialize services
	cooccurService := service.NewCooccurrenceService(cooccurRepo, sourceRepo, appLogger)
	pipeline := service.NewPipeline(
		queryRepo,
		sourceRepo,
		cooccurService,
		searchProvider,
		gemini,
		fetcher,
		appLogger,
		&service.PipelineConfig{
			SearchResults:  cfg.Pipeline.SearchResults,
			FetchTimeout:   cfg.Pipeline.FetchTimeout,
			ScoreThreshold: cfg.Pipeline.ScoreThreshold,
		},
	)
	catalogService := service.NewCatalogService(
		sourceRepo,
		cooccurRepo,
		cooccurService,
		gemini,
		fetcher,
		appLogger,
		cfg.Pipeline.FetchTimeout,
	)
	queueService := service.NewQueueService(queryRepo, sourceRepo, gemini, appLogger)

	// Setup router
	router := api.SetupRouter(cfg, &api.RouterDeps{
		Catalog:   catalogService,
		Queue:     queueService,
		Cooccur:   cooccurService,
		Pipeline:  pipeline,
		Corrector: gemini,
		Logger:    appLogger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
