package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/schnitzlab/curator/internal/domain"
	"gorm.io/gorm"
)

// QueryRepository handles search-queue data operations.
type QueryRepository struct {
	db *gorm.DB
}

// NewQueryRepository creates a new QueryRepository bound to db.
func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// QueryListOptions narrows List results.
type QueryListOptions struct {
	Status      domain.QueryStatus
	AIGenerated bool
	Search      string
}

// Create inserts a new queued query.
func (r *QueryRepository) Create(ctx context.Context, query *domain.SearchQuery) error {
	return r.db.WithContext(ctx).Create(query).Error
}

// GetByID retrieves a queued query by its ID.
func (r *QueryRepository) GetByID(ctx context.Context, id uint) (*domain.SearchQuery, error) {
	var query domain.SearchQuery
	if err := r.db.WithContext(ctx).First(&query, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &query, nil
}

// List retrieves queued queries sorted actionable-first (pending,
// processing, failed, processed), newest first within a status.
func (r *QueryRepository) List(ctx context.Context, opts QueryListOptions) ([]domain.SearchQuery, error) {
	query := r.db.WithContext(ctx).Model(&domain.SearchQuery{})
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.AIGenerated {
		query = query.Where("is_ai_generated = ?", true)
	}
	if opts.Search != "" {
		query = query.Where("query LIKE ?", "%"+opts.Search+"%")
	}

	var queries []domain.SearchQuery
	if err := query.Order("date_added DESC").Find(&queries).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(queries, func(i, j int) bool {
		return domain.StatusPriority(queries[i].Status) < domain.StatusPriority(queries[j].Status)
	})
	return queries, nil
}

// UpdateFields applies a partial update to a queued query.
func (r *QueryRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&domain.SearchQuery{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a queued query. Sources attributed to it are left in place;
// the back-reference is denormalized text, not a foreign key.
func (r *QueryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.SearchQuery{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// OldestPending returns the pending query that has waited longest, or
// domain.ErrNotFound when the queue is drained.
func (r *QueryRepository) OldestPending(ctx context.Context) (*domain.SearchQuery, error) {
	var query domain.SearchQuery
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.QueryStatusPending).
		Order("date_added ASC").
		First(&query).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &query, nil
}

// MarkProcessing flips a query to the processing state.
func (r *QueryRepository) MarkProcessing(ctx context.Context, id uint) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"status": domain.QueryStatusProcessing,
	})
}

// MarkProcessed records a successful run: terminal status, processing
// timestamp, accumulated results count and an optional error summary.
func (r *QueryRepository) MarkProcessed(ctx context.Context, id uint, resultsCount int, errorMessage *string) error {
	now := time.Now()
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"status":         domain.QueryStatusProcessed,
		"date_processed": &now,
		"results_count":  resultsCount,
		"error_message":  errorMessage,
	})
}

// MarkFailed records a failed run with the causing message.
func (r *QueryRepository) MarkFailed(ctx context.Context, id uint, message string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"status":        domain.QueryStatusFailed,
		"error_message": message,
	})
}

// UpdateResultsCount refreshes only the results counter. Used after a
// cancelled run, where the failed status must be left untouched.
func (r *QueryRepository) UpdateResultsCount(ctx context.Context, id uint, resultsCount int) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"results_count": resultsCount,
	})
}
