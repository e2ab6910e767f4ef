package service

import (
	"context"
	"testing"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogFixture(t *testing.T) (*CatalogService, *repository.SourceRepository, *repository.CooccurrenceRepository) {
	t.Helper()

	db := newTestDB(t)
	sourceRepo := repository.NewSourceRepository(db)
	cooccurRepo := repository.NewCooccurrenceRepository(db)
	log := testLogger()
	cooccur := NewCooccurrenceService(cooccurRepo, sourceRepo, log)

	catalog := NewCatalogService(
		sourceRepo,
		cooccurRepo,
		cooccur,
		&fakeGenerator{},
		&fakeFetcher{content: "Inhalt"},
		log,
		0,
	)
	return catalog, sourceRepo, cooccurRepo
}

func TestCreateSource(t *testing.T) {
	catalog, _, cooccurRepo := newCatalogFixture(t)
	ctx := context.Background()

	source, err := catalog.CreateSource(ctx, &CreateSourceInput{
		URL:   "https://example.de/anleitung",
		Title: "Kerbschnitzen Grundkurs",
		Tags:  []string{"kerbschnitzen", "anleitung"},
	})
	require.NoError(t, err)
	assert.NotZero(t, source.ID)
	assert.Equal(t, domain.CategorySonstiges, source.Category)
	assert.Equal(t, "Deutsch", source.Language)
	assert.Equal(t, 5, source.RelevanceScore)

	// Manual additions feed the co-occurrence counts too.
	pair, err := cooccurRepo.GetPair(ctx, "kerbschnitzen", "anleitung")
	require.NoError(t, err)
	assert.Equal(t, 1, pair.Count)
}

func TestCreateSourceValidation(t *testing.T) {
	catalog, _, _ := newCatalogFixture(t)
	ctx := context.Background()

	_, err := catalog.CreateSource(ctx, &CreateSourceInput{URL: "  ", Title: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = catalog.CreateSource(ctx, &CreateSourceInput{URL: "https://example.de", Title: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateSourceDuplicateURL(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	seedSource(t, sourceRepo, "https://example.de/a", "A", nil, 5)

	_, err := catalog.CreateSource(ctx, &CreateSourceInput{
		URL:   "https://example.de/a",
		Title: "Duplicate",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateURL)
}

func TestUpdateSourcePartial(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	source := seedSource(t, sourceRepo, "https://example.de/a", "Alt", []string{"schnitzen"}, 6)

	newTitle := "Neu"
	corrected := 9
	starred := true
	updated, err := catalog.UpdateSource(ctx, source.ID, &UpdateSourceInput{
		Title:          &newTitle,
		CorrectedScore: &corrected,
		StarRating:     &starred,
	})
	require.NoError(t, err)
	assert.Equal(t, "Neu", updated.Title)
	assert.True(t, updated.StarRating)
	// Untouched fields survive.
	assert.Equal(t, domain.StringArray{"schnitzen"}, updated.Tags)
	assert.Equal(t, 6, updated.RelevanceScore)
	// The override takes effect in the display score.
	assert.Equal(t, 9, updated.DisplayScore())
}

func TestListSourcesFilters(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	seedSource(t, sourceRepo, "https://example.de/messer", "Messerpflege", []string{"messer", "pflege"}, 8)
	low := seedSource(t, sourceRepo, "https://example.de/holz", "Holzkunde", []string{"holz"}, 3)
	starred := seedSource(t, sourceRepo, "https://example.de/relief", "Reliefschnitzen", []string{"relief"}, 7)
	starred.StarRating = true
	require.NoError(t, sourceRepo.Update(ctx, starred))

	list, err := catalog.ListSources(ctx, SourceFilter{Search: "messer"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Messerpflege", list.Sources[0].Title)

	list, err = catalog.ListSources(ctx, SourceFilter{Tag: "holz"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, low.ID, list.Sources[0].ID)

	list, err = catalog.ListSources(ctx, SourceFilter{MinScore: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	list, err = catalog.ListSources(ctx, SourceFilter{StarredOnly: true})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, starred.ID, list.Sources[0].ID)
}

func TestListSourcesPagination(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	seedSource(t, sourceRepo, "https://example.de/1", "S1", nil, 5)
	seedSource(t, sourceRepo, "https://example.de/2", "S2", nil, 5)
	seedSource(t, sourceRepo, "https://example.de/3", "S3", nil, 5)

	list, err := catalog.ListSources(ctx, SourceFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.TotalPages)
	assert.Len(t, list.Sources, 1)

	// A page past the end is empty, not an error.
	list, err = catalog.ListSources(ctx, SourceFilter{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, list.Sources)
}

func TestDeleteAllSourcesClearsCooccurrence(t *testing.T) {
	catalog, sourceRepo, cooccurRepo := newCatalogFixture(t)
	ctx := context.Background()

	_, err := catalog.CreateSource(ctx, &CreateSourceInput{
		URL:   "https://example.de/a",
		Title: "A",
		Tags:  []string{"x", "y"},
	})
	require.NoError(t, err)

	deleted, err := catalog.DeleteAllSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := sourceRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	pairs, err := cooccurRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, pairs)
}

func TestStats(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	a := seedSource(t, sourceRepo, "https://example.de/a", "A", nil, 5)
	a.StarRating = true
	require.NoError(t, sourceRepo.Update(ctx, a))
	seedSource(t, sourceRepo, "https://example.de/b", "B", nil, 5)

	stats, err := catalog.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSources)
	assert.Equal(t, int64(1), stats.StarredSources)
	assert.Equal(t, int64(2), stats.Categories[domain.CategoryTutorial])
	assert.Equal(t, int64(2), stats.Languages["Deutsch"])
}

func TestTagGroups(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	high := seedSource(t, sourceRepo, "https://example.de/a", "A", []string{"schnitzen", "messer"}, 9)
	low := seedSource(t, sourceRepo, "https://example.de/b", "B", []string{"schnitzen"}, 4)

	groups, total, err := catalog.TagGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, groups, 2)

	// Most-used tag first; members ranked by display score.
	assert.Equal(t, "schnitzen", groups[0].Tag)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, high.ID, groups[0].Sources[0].ID)
	assert.Equal(t, low.ID, groups[0].Sources[1].ID)

	assert.Equal(t, "messer", groups[1].Tag)
	assert.Equal(t, 1, groups[1].Count)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	metadata, err := catalog.Preview(ctx, "https://example.de/neu")
	require.NoError(t, err)
	assert.NotEmpty(t, metadata.Title)

	count, err := sourceRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

type fixedCorrector struct {
	title string
}

func (f *fixedCorrector) CorrectTitle(_ context.Context, title, _, _ string) string {
	if f.title == "" {
		return title
	}
	return f.title
}

func TestCorrectSourceTitle(t *testing.T) {
	catalog, sourceRepo, _ := newCatalogFixture(t)
	ctx := context.Background()

	source := seedSource(t, sourceRepo, "https://example.de/a", "schnitzen-teil-1-final", nil, 5)

	updated, err := catalog.CorrectSourceTitle(ctx, source.ID, &fixedCorrector{title: "Schnitzen, Teil 1"})
	require.NoError(t, err)
	assert.Equal(t, "Schnitzen, Teil 1", updated.Title)

	stored, err := sourceRepo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, "Schnitzen, Teil 1", stored.Title)

	// A corrector that returns the original leaves the record alone.
	same, err := catalog.CorrectSourceTitle(ctx, source.ID, &fixedCorrector{})
	require.NoError(t, err)
	assert.Equal(t, "Schnitzen, Teil 1", same.Title)
}
