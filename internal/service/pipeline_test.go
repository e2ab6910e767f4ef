package service

import (
	"context"
	"errors"
	"testing"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type pipelineFixture struct {
	db         *gorm.DB
	queryRepo  *repository.QueryRepository
	sourceRepo *repository.SourceRepository
	search     *fakeSearch
	generator  *fakeGenerator
	pipeline   *Pipeline
}

func newPipelineFixture(t *testing.T, search *fakeSearch, generator *fakeGenerator) *pipelineFixture {
	t.Helper()

	db := newTestDB(t)
	queryRepo := repository.NewQueryRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	cooccurRepo := repository.NewCooccurrenceRepository(db)
	log := testLogger()
	cooccur := NewCooccurrenceService(cooccurRepo, sourceRepo, log)

	pipeline := NewPipeline(
		queryRepo,
		sourceRepo,
		cooccur,
		search,
		generator,
		&fakeFetcher{content: "Schnitzanleitung fuer Anfaenger"},
		log,
		nil,
	)

	return &pipelineFixture{
		db:         db,
		queryRepo:  queryRepo,
		sourceRepo: sourceRepo,
		search:     search,
		generator:  generator,
		pipeline:   pipeline,
	}
}

func (f *pipelineFixture) enqueue(t *testing.T, text string) *domain.SearchQuery {
	t.Helper()
	query := &domain.SearchQuery{Query: text, Status: domain.QueryStatusPending}
	require.NoError(t, f.queryRepo.Create(context.Background(), query))
	return query
}

func TestProcessNoResults(t *testing.T) {
	f := newPipelineFixture(t, &fakeSearch{urls: nil}, &fakeGenerator{})
	ctx := context.Background()
	query := f.enqueue(t, "schnitzmesser schaerfen")

	result, err := f.pipeline.Process(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewSources)
	assert.Equal(t, 0, result.ErrorCount)

	// An empty run still completes normally.
	updated, err := f.queryRepo.GetByID(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusProcessed, updated.Status)
	assert.Equal(t, 0, updated.ResultsCount)
	assert.Nil(t, updated.ErrorMessage)
	assert.NotNil(t, updated.DateProcessed)
}

func TestProcessSkipsDuplicateAndExistingURLs(t *testing.T) {
	f := newPipelineFixture(t, &fakeSearch{urls: []string{
		"https://example.de/a",
		"https://example.de/a",
		"https://example.de/b",
	}}, &fakeGenerator{})
	ctx := context.Background()

	seedSource(t, f.sourceRepo, "https://example.de/b", "Existing", nil, 6)
	query := f.enqueue(t, "holzarten schnitzen")

	result, err := f.pipeline.Process(ctx, query.ID)
	require.NoError(t, err)

	// The repeated URL and the already-catalogued one cost no generation call.
	assert.Equal(t, 1, f.generator.calls)
	assert.Equal(t, 1, result.NewSources)
}

func TestProcessScoreGate(t *testing.T) {
	generator := &fakeGenerator{metadata: map[string]*domain.SourceMetadata{
		"https://example.de/good": {
			Title: "Good", Category: domain.CategoryTutorial,
			Tags: []string{"schnitzen"}, Language: "Deutsch", QualityScore: 6,
		},
		"https://example.de/bad": {
			Title: "Bad", Category: domain.CategorySonstiges,
			Language: "Deutsch", QualityScore: 2,
		},
		"https://example.de/also-good": {
			Title: "Also good", Category: domain.CategoryTechnik,
			Tags: []string{"kerbschnitzen"}, Language: "Deutsch", QualityScore: 6,
		},
	}}
	f := newPipelineFixture(t, &fakeSearch{urls: []string{
		"https://example.de/good",
		"https://example.de/bad",
		"https://example.de/also-good",
	}}, generator)
	ctx := context.Background()
	query := f.enqueue(t, "schnitztechniken")

	result, err := f.pipeline.Process(ctx, query.ID)
	require.NoError(t, err)

	// A low score is a rejection, not an error.
	assert.Equal(t, 2, result.NewSources)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, 2, result.TotalForQuery)

	updated, err := f.queryRepo.GetByID(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusProcessed, updated.Status)
	assert.Equal(t, 2, updated.ResultsCount)
	assert.Nil(t, updated.ErrorMessage)

	count, err := f.sourceRepo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestProcessRecordsPerURLErrors(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("model unavailable")}
	f := newPipelineFixture(t, &fakeSearch{urls: []string{
		"https://example.de/a",
		"https://example.de/b",
	}}, generator)
	ctx := context.Background()
	query := f.enqueue(t, "schnitzbank bauen")

	result, err := f.pipeline.Process(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewSources)
	assert.Equal(t, 2, result.ErrorCount)

	// Per-URL failures leave the run processed with an error summary.
	updated, err := f.queryRepo.GetByID(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusProcessed, updated.Status)
	require.NotNil(t, updated.ErrorMessage)
	assert.Equal(t, "2 errors occurred", *updated.ErrorMessage)
}

func TestProcessSearchFailureFailsQuery(t *testing.T) {
	f := newPipelineFixture(t, &fakeSearch{err: errors.New("quota exceeded")}, &fakeGenerator{})
	ctx := context.Background()
	query := f.enqueue(t, "schnitzholz kaufen")

	_, err := f.pipeline.Process(ctx, query.ID)
	require.Error(t, err)

	updated, err := f.queryRepo.GetByID(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, updated.Status)
	require.NotNil(t, updated.ErrorMessage)
	assert.Contains(t, *updated.ErrorMessage, "web search failed")
}

func TestProcessCancellationBetweenURLs(t *testing.T) {
	ctx := context.Background()

	var f *pipelineFixture
	var queryID uint
	generator := &fakeGenerator{}
	generator.onGenerate = func(_ string) {
		// Cancel after the first URL: the status flip is observed before the
		// second one starts.
		if generator.calls == 1 {
			require.NoError(t, f.queryRepo.MarkFailed(ctx, queryID, "cancelled by operator"))
		}
	}

	f = newPipelineFixture(t, &fakeSearch{urls: []string{
		"https://example.de/a",
		"https://example.de/b",
		"https://example.de/c",
	}}, generator)
	query := f.enqueue(t, "reliefschnitzerei")
	queryID = query.ID

	result, err := f.pipeline.Process(ctx, queryID)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.NewSources)
	assert.Equal(t, 1, generator.calls)

	// Cancellation keeps the failed status but refreshes the counter.
	updated, err := f.queryRepo.GetByID(ctx, queryID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, updated.Status)
	assert.Equal(t, 1, updated.ResultsCount)
	require.NotNil(t, updated.ErrorMessage)
	assert.Equal(t, "cancelled by operator", *updated.ErrorMessage)
}

func TestProcessContextCancellationMarksFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generator := &fakeGenerator{}
	generator.onGenerate = func(_ string) {
		// The caller disappears while the first URL is being scored.
		if generator.calls == 1 {
			cancel()
		}
	}

	f := newPipelineFixture(t, &fakeSearch{urls: []string{
		"https://example.de/a",
		"https://example.de/b",
		"https://example.de/c",
	}}, generator)
	query := f.enqueue(t, "schnitzeisen pflege")

	_, err := f.pipeline.Process(ctx, query.ID)
	require.Error(t, err)
	assert.Equal(t, 1, generator.calls)

	// The failure record lands even though the run's context is dead; the
	// query must never be left sitting in processing.
	updated, err := f.queryRepo.GetByID(context.Background(), query.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, updated.Status)
	require.NotNil(t, updated.ErrorMessage)
	assert.Contains(t, *updated.ErrorMessage, "context canceled")
}

func TestProcessResultsCountAccumulatesAcrossRuns(t *testing.T) {
	f := newPipelineFixture(t, &fakeSearch{urls: []string{"https://example.de/run1"}}, &fakeGenerator{})
	ctx := context.Background()
	query := f.enqueue(t, "loeffel schnitzen")

	_, err := f.pipeline.Process(ctx, query.ID)
	require.NoError(t, err)

	// Re-run the same text with a fresh result set.
	f.search.urls = []string{"https://example.de/run2"}
	require.NoError(t, f.queryRepo.UpdateFields(ctx, query.ID, map[string]interface{}{
		"status": domain.QueryStatusPending,
	}))

	result, err := f.pipeline.Process(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewSources)
	assert.Equal(t, 2, result.TotalForQuery)

	updated, err := f.queryRepo.GetByID(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.ResultsCount)
}

func TestProcessAttributesSourcesToQuery(t *testing.T) {
	f := newPipelineFixture(t, &fakeSearch{urls: []string{"https://example.de/a"}}, &fakeGenerator{})
	ctx := context.Background()
	query := f.enqueue(t, "figuren schnitzen anleitung")

	_, err := f.pipeline.Process(ctx, query.ID)
	require.NoError(t, err)

	sources, err := f.sourceRepo.All(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.NotNil(t, sources[0].SourceQuery)
	assert.Equal(t, query.Query, *sources[0].SourceQuery)
	assert.False(t, sources[0].StarRating)
}

func TestProcessUnknownQuery(t *testing.T) {
	f := newPipelineFixture(t, &fakeSearch{}, &fakeGenerator{})

	_, err := f.pipeline.Process(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
