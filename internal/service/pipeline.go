package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/repository"
)

// Pipeline turns one pending search query into zero or more catalog sources:
// search, dedup, fetch, score, persist, relate. URLs are handled strictly
// sequentially, which bounds outbound concurrency and keeps the per-run
// wall-clock budget predictable.
type Pipeline struct {
	queryRepo  *repository.QueryRepository
	sourceRepo *repository.SourceRepository
	cooccur    *CooccurrenceService
	search     SearchProvider
	generator  MetadataGenerator
	fetcher    PageFetcher
	logger     *logger.Logger

	searchResults  int
	fetchTimeout   time.Duration
	scoreThreshold int
}

// PipelineConfig holds the processing budget for a pipeline instance. The
// request profile (3 results, 8s fetch) stays well under a 60-second request
// deadline; the worker runs a relaxed batch profile instead.
type PipelineConfig struct {
	SearchResults  int
	FetchTimeout   time.Duration
	ScoreThreshold int
}

// NewPipeline creates a new ingestion pipeline. Collaborators are injected
// so tests can substitute fakes for the search, fetch, and generation
// providers.
func NewPipeline(
	queryRepo *repository.QueryRepository,
	sourceRepo *repository.SourceRepository,
	cooccur *CooccurrenceService,
	search SearchProvider,
	generator MetadataGenerator,
	fetcher PageFetcher,
	log *logger.Logger,
	cfg *PipelineConfig,
) *Pipeline {
	p := &Pipeline{
		queryRepo:      queryRepo,
		sourceRepo:     sourceRepo,
		cooccur:        cooccur,
		search:         search,
		generator:      generator,
		fetcher:        fetcher,
		logger:         log,
		searchResults:  3,
		fetchTimeout:   8 * time.Second,
		scoreThreshold: 4,
	}
	if cfg != nil {
		if cfg.SearchResults > 0 {
			p.searchResults = cfg.SearchResults
		}
		if cfg.FetchTimeout > 0 {
			p.fetchTimeout = cfg.FetchTimeout
		}
		if cfg.ScoreThreshold > 0 {
			p.scoreThreshold = cfg.ScoreThreshold
		}
	}
	return p
}

func (p *Pipeline) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return p.logger
}

// ProcessResult summarizes one pipeline run.
type ProcessResult struct {
	NewSources    int  `json:"new_sources"`
	TotalForQuery int  `json:"total_for_query"`
	ErrorCount    int  `json:"error_count"`
	Cancelled     bool `json:"cancelled,omitempty"`
}

// Process runs the ingestion pipeline for one queued query. Any error that
// escapes the run is recorded on the query (status failed, message set)
// before being returned, so a query is never left stuck in processing.
func (p *Pipeline) Process(ctx context.Context, queryID uint) (*ProcessResult, error) {
	query, err := p.queryRepo.GetByID(ctx, queryID)
	if err != nil {
		return nil, err
	}

	ctx = logger.SetQueryID(ctx, queryID)

	// Best-effort processing marker; no locking layer guards against a
	// concurrent second invocation on the same id.
	if err := p.queryRepo.MarkProcessing(ctx, queryID); err != nil {
		return nil, err
	}

	result, err := p.run(ctx, query)
	if err != nil {
		// The run may have died together with the caller's context; the
		// failure record must still land, or the query stays in processing
		// forever.
		failCtx := context.WithoutCancel(ctx)
		if markErr := p.queryRepo.MarkFailed(failCtx, queryID, err.Error()); markErr != nil {
			p.log(ctx).WithError(markErr).Error("Failed to record query failure")
		}
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, query *domain.SearchQuery) (*ProcessResult, error) {
	start := time.Now()
	p.log(ctx).WithFields(logger.Fields{
		"query": query.Query,
		"count": p.searchResults,
	}).Info("Starting query processing")

	urls, err := p.search.Search(ctx, query.Query, p.searchResults)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	// Providers occasionally repeat a URL; the catalog pre-filter is one
	// batched membership query, not a round-trip per URL.
	urls = DedupeURLs(urls)
	existing, err := p.sourceRepo.ExistingURLs(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("failed to pre-filter urls: %w", err)
	}

	candidates := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := existing[u]; !ok {
			candidates = append(candidates, u)
		}
	}

	p.log(ctx).WithFields(logger.Fields{
		"found":      len(urls),
		"candidates": len(candidates),
	}).Info("Search complete")

	newSources := 0
	errorCount := 0
	cancelled := false

	for i, url := range candidates {
		// A dead caller context is not an operator cancellation: nobody
		// flipped the status, so the run fails outright and Process records
		// the failure.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("processing interrupted: %w", err)
		}
		// Operator cancellation is a status flip to failed, observed
		// between URLs only, never mid-fetch.
		current, err := p.queryRepo.GetByID(ctx, query.ID)
		if err == nil && current.Status == domain.QueryStatusFailed {
			p.log(ctx).Infof("Query cancelled, stopping after %d/%d URLs", i, len(candidates))
			cancelled = true
			break
		}

		urlCtx := logger.WithField(ctx, logger.FieldURL, url)
		added, err := p.processURL(urlCtx, query, url)
		if err != nil {
			errorCount++
			p.log(urlCtx).WithError(err).Errorf("Failed to process URL %d/%d", i+1, len(candidates))
			continue
		}
		if added {
			newSources++
		}
	}

	// Final bookkeeping runs detached so it survives the caller's context
	// dying after the last URL.
	finishCtx := context.WithoutCancel(ctx)

	// Re-runs of the same query text accumulate, so the counter is the
	// live catalog count for the text, not the count added in this run.
	total, err := p.sourceRepo.CountBySourceQuery(finishCtx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to count sources for query: %w", err)
	}

	result := &ProcessResult{
		NewSources:    newSources,
		TotalForQuery: int(total),
		ErrorCount:    errorCount,
		Cancelled:     cancelled,
	}

	if cancelled {
		// The externally written failed status must survive; only the
		// counter is refreshed.
		if err := p.queryRepo.UpdateResultsCount(finishCtx, query.ID, int(total)); err != nil {
			p.log(ctx).WithError(err).Error("Failed to update results count after cancellation")
		}
		return result, nil
	}

	var errorMessage *string
	if errorCount > 0 {
		msg := fmt.Sprintf("%d errors occurred", errorCount)
		errorMessage = &msg
	}
	if err := p.queryRepo.MarkProcessed(finishCtx, query.ID, int(total), errorMessage); err != nil {
		return nil, fmt.Errorf("failed to finalize query: %w", err)
	}

	p.log(ctx).WithFields(logger.Fields{
		"new_sources":          newSources,
		"errors":               errorCount,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Query processing complete")

	return result, nil
}

// processURL handles one candidate: fetch, score, persist, relate. The
// returned bool reports whether a source was added; an error counts toward
// the run's error summary but never aborts the batch.
func (p *Pipeline) processURL(ctx context.Context, query *domain.SearchQuery, url string) (bool, error) {
	// A fetch failure or timeout degrades to scoring on the URL alone.
	content, err := p.fetcher.Fetch(ctx, url, p.fetchTimeout)
	if err != nil {
		p.log(ctx).WithError(err).Warn("Fetch failed, scoring without content")
		content = ""
	}

	metadata, err := p.generator.GenerateMetadata(ctx, url, content)
	if err != nil {
		return false, fmt.Errorf("metadata generation failed: %w", err)
	}

	if metadata.QualityScore < p.scoreThreshold {
		p.log(ctx).WithFields(logger.Fields{
			"score":     metadata.QualityScore,
			"threshold": p.scoreThreshold,
		}).Info("Candidate rejected by score gate")
		return false, nil
	}

	queryText := query.Query
	source := &domain.Source{
		URL:            url,
		Title:          metadata.Title,
		Category:       metadata.Category,
		Summary:        metadata.Summary,
		Tags:           metadata.Tags,
		Language:       metadata.Language,
		SourceQuery:    &queryText,
		RelevanceScore: metadata.QualityScore,
		StarRating:     false,
	}
	if err := p.sourceRepo.Create(ctx, source); err != nil {
		if errors.Is(err, domain.ErrDuplicateURL) {
			// A concurrent run beat us past the pre-filter; already
			// catalogued is a skip, not a failure.
			p.log(ctx).Info("URL inserted concurrently, skipping")
			return false, nil
		}
		return false, fmt.Errorf("failed to persist source: %w", err)
	}

	if len(metadata.Tags) > 0 {
		p.cooccur.Record(ctx, metadata.Tags)
	}

	p.log(ctx).WithFields(logger.Fields{
		"source_id": source.ID,
		"score":     metadata.QualityScore,
	}).Info("Source added")
	return true, nil
}
