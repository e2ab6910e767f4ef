package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Source{},
		&domain.SearchQuery{},
		&domain.TagCooccurrence{},
	))
	return db
}

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error"})
}

func seedSource(t *testing.T, repo *repository.SourceRepository, url, title string, tags []string, score int) *domain.Source {
	t.Helper()

	source := &domain.Source{
		URL:            url,
		Title:          title,
		Category:       domain.CategoryTutorial,
		Tags:           tags,
		Language:       "Deutsch",
		RelevanceScore: score,
	}
	require.NoError(t, repo.Create(context.Background(), source))
	return source
}

// fakeSearch returns a fixed URL list, or an error.
type fakeSearch struct {
	urls  []string
	err   error
	calls int
}

func (f *fakeSearch) Search(_ context.Context, _ string, _ int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.urls, nil
}

// fakeGenerator returns canned metadata keyed by URL. onGenerate, when set,
// runs before each response so tests can mutate state mid-run.
type fakeGenerator struct {
	metadata   map[string]*domain.SourceMetadata
	err        error
	calls      int
	onGenerate func(url string)
}

func (f *fakeGenerator) GenerateMetadata(_ context.Context, url, _ string) (*domain.SourceMetadata, error) {
	f.calls++
	if f.onGenerate != nil {
		f.onGenerate(url)
	}
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.metadata[url]; ok {
		return m, nil
	}
	return &domain.SourceMetadata{
		Title:        "Title for " + url,
		Summary:      "Summary",
		Category:     domain.CategoryTutorial,
		Tags:         []string{"schnitzen"},
		Language:     "Deutsch",
		QualityScore: 7,
	}, nil
}

// fakeQueryGen expands a topic into fixed suggestions.
type fakeQueryGen struct {
	queries []string
	err     error
}

func (f *fakeQueryGen) GenerateQueries(_ context.Context, _ string, _ int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.queries, nil
}

// fakeFetcher returns fixed content, or an error for URLs in failFor.
type fakeFetcher struct {
	content string
	failFor map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ time.Duration) (string, error) {
	if f.failFor[url] {
		return "", context.DeadlineExceeded
	}
	return f.content, nil
}
