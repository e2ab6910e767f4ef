package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/schnitzlab/curator/internal/domain"
	"gorm.io/gorm"
)

// SourceRepository handles catalog source data operations.
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new SourceRepository bound to db.
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// SourceListOptions narrows List results. Zero values mean "no filter";
// Limit <= 0 disables pagination.
type SourceListOptions struct {
	Category    string
	Language    string
	StarredOnly bool
	Limit       int
	Offset      int
}

// Create inserts a new source record. A unique-constraint violation on the
// URL column is reported as domain.ErrDuplicateURL.
func (r *SourceRepository) Create(ctx context.Context, source *domain.Source) error {
	if err := r.db.WithContext(ctx).Create(source).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateURL
		}
		return err
	}
	return nil
}

// GetByID retrieves a source by its ID.
func (r *SourceRepository) GetByID(ctx context.Context, id uint) (*domain.Source, error) {
	var source domain.Source
	if err := r.db.WithContext(ctx).First(&source, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &source, nil
}

// Update saves an existing source record.
func (r *SourceRepository) Update(ctx context.Context, source *domain.Source) error {
	return r.db.WithContext(ctx).Save(source).Error
}

// Delete removes a source by ID.
func (r *SourceRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Source{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll removes every source and returns the number of deleted rows.
func (r *SourceRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.Source{})
	return res.RowsAffected, res.Error
}

// List retrieves sources matching the options, newest first, plus the total
// count for the same filter (ignoring pagination).
func (r *SourceRepository) List(ctx context.Context, opts SourceListOptions) ([]domain.Source, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Source{})
	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}
	if opts.Language != "" {
		query = query.Where("language = ?", opts.Language)
	}
	if opts.StarredOnly {
		query = query.Where("star_rating = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("date_added DESC")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}

	var sources []domain.Source
	if err := query.Find(&sources).Error; err != nil {
		return nil, 0, err
	}
	return sources, total, nil
}

// All retrieves every source ordered by ID. Used by the similarity scan and
// the tag aggregations, which need the full tag lists anyway.
func (r *SourceRepository) All(ctx context.Context) ([]domain.Source, error) {
	var sources []domain.Source
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// ExistingURLs checks which of the given URLs are already in the catalog
// with a single membership query.
func (r *SourceRepository) ExistingURLs(ctx context.Context, urls []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(urls) == 0 {
		return existing, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&domain.Source{}).
		Where("url IN ?", urls).
		Pluck("url", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing urls: %w", err)
	}
	for _, u := range found {
		existing[u] = struct{}{}
	}
	return existing, nil
}

// CountBySourceQuery counts sources attributed to the given query text.
func (r *SourceRepository) CountBySourceQuery(ctx context.Context, queryText string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Source{}).
		Where("source_query = ?", queryText).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the total number of sources.
func (r *SourceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Source{}).Count(&count).Error
	return count, err
}

// CountStarred returns the number of featured sources.
func (r *SourceRepository) CountStarred(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Source{}).
		Where("star_rating = ?", true).
		Count(&count).Error
	return count, err
}
