package repository

import (
	"context"
	"testing"
	"time"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryListActionableFirst(t *testing.T) {
	repo := NewQueryRepository(newTestDB(t))
	ctx := context.Background()

	enqueue := func(text string, status domain.QueryStatus) {
		query := &domain.SearchQuery{Query: text, Status: domain.QueryStatusPending}
		require.NoError(t, repo.Create(ctx, query))
		if status != domain.QueryStatusPending {
			require.NoError(t, repo.UpdateFields(ctx, query.ID, map[string]interface{}{"status": status}))
		}
	}

	enqueue("fertig", domain.QueryStatusProcessed)
	enqueue("kaputt", domain.QueryStatusFailed)
	enqueue("laeuft", domain.QueryStatusProcessing)
	enqueue("wartet", domain.QueryStatusPending)

	queries, err := repo.List(ctx, QueryListOptions{})
	require.NoError(t, err)
	require.Len(t, queries, 4)

	assert.Equal(t, "wartet", queries[0].Query)
	assert.Equal(t, "laeuft", queries[1].Query)
	assert.Equal(t, "kaputt", queries[2].Query)
	assert.Equal(t, "fertig", queries[3].Query)
}

func TestOldestPending(t *testing.T) {
	repo := NewQueryRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.OldestPending(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first := &domain.SearchQuery{Query: "erste", Status: domain.QueryStatusPending, DateAdded: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, first))
	second := &domain.SearchQuery{Query: "zweite", Status: domain.QueryStatusPending}
	require.NoError(t, repo.Create(ctx, second))

	oldest, err := repo.OldestPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, oldest.ID)

	require.NoError(t, repo.MarkProcessing(ctx, first.ID))
	oldest, err = repo.OldestPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, oldest.ID)
}

func TestMarkProcessedAndFailed(t *testing.T) {
	repo := NewQueryRepository(newTestDB(t))
	ctx := context.Background()

	query := &domain.SearchQuery{Query: "test", Status: domain.QueryStatusPending}
	require.NoError(t, repo.Create(ctx, query))

	msg := "2 errors occurred"
	require.NoError(t, repo.MarkProcessed(ctx, query.ID, 3, &msg))

	loaded, err := repo.GetByID(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusProcessed, loaded.Status)
	assert.Equal(t, 3, loaded.ResultsCount)
	assert.NotNil(t, loaded.DateProcessed)
	require.NotNil(t, loaded.ErrorMessage)
	assert.Equal(t, msg, *loaded.ErrorMessage)

	require.NoError(t, repo.MarkFailed(ctx, query.ID, "boom"))
	loaded, err = repo.GetByID(ctx, query.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, loaded.Status)
	require.NotNil(t, loaded.ErrorMessage)
	assert.Equal(t, "boom", *loaded.ErrorMessage)

	assert.ErrorIs(t, repo.MarkFailed(ctx, 9999, "x"), domain.ErrNotFound)
}
