package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/schnitzlab/curator/internal/config"
	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/repository"
	"github.com/schnitzlab/curator/internal/service"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewFromEnv().WithField(logger.FieldComponent, "worker")
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

	// The worker runs the relaxed batch profile: more candidate URLs and a
	// longer fetch timeout than the request-bound pipeline.
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
			SearchResults:  cfg.Worker.SearchResults,
			FetchTimeout:   cfg.Worker.FetchTimeout,
			ScoreThreshold: cfg.Pipeline.ScoreThreshold,
		},
	)

	// Schedule queue draining. SkipIfStillRunning keeps a long batch from
	// piling up overlapping runs.
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	_, err = c.AddFunc(cfg.Worker.Schedule, func() {
		drainQueue(context.Background(), queryRepo, pipeline, appLogger)
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid worker schedule")
	}

	appLogger.WithField("schedule", cfg.Worker.Schedule).Info("Starting queue worker")
	c.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker...")

	// Stop scheduling new runs and wait for the in-flight one to finish.
	<-c.Stop().Done()

	appLogger.Info("Worker exited")
}

// queryQueue is the slice of the query repository the drain loop needs.
type queryQueue interface {
	OldestPending(ctx context.Context) (*domain.SearchQuery, error)
	GetByID(ctx context.Context, id uint) (*domain.SearchQuery, error)
}

// queryProcessor runs the ingestion pipeline for one query.
type queryProcessor interface {
	Process(ctx context.Context, queryID uint) (*service.ProcessResult, error)
}

// drainQueue processes pending queries oldest-first until the queue is empty.
// A failed query does not stop the drain; the pipeline already recorded the
// failure on the query itself.
func drainQueue(
	ctx context.Context,
	queue queryQueue,
	pipeline queryProcessor,
	log *logger.Logger,
) {
	for {
		query, err := queue.OldestPending(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.WithError(err).Error("Failed to poll query queue")
			}
			return
		}

		result, err := pipeline.Process(ctx, query.ID)
		if err != nil {
			log.WithError(err).WithField(logger.FieldQueryID, query.ID).Error("Query processing failed")

			// If the status never advanced past pending, the next poll
			// would return the same query and the loop would spin. Leave
			// it for the next scheduled run instead.
			current, getErr := queue.GetByID(ctx, query.ID)
			if getErr != nil || current.Status == domain.QueryStatusPending {
				return
			}
			continue
		}
		log.WithFields(logger.Fields{
			logger.FieldQueryID: query.ID,
			"new_sources":       result.NewSources,
			"errors":            result.ErrorCount,
		}).Info("Query processed")
	}
}
