package repository

import (
	"context"
	"time"

	"github.com/schnitzlab/curator/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CooccurrenceRepository handles tag co-occurrence data operations.
type CooccurrenceRepository struct {
	db *gorm.DB
}

// NewCooccurrenceRepository creates a new CooccurrenceRepository bound to db.
func NewCooccurrenceRepository(db *gorm.DB) *CooccurrenceRepository {
	return &CooccurrenceRepository{db: db}
}

// IncrementPair upserts the canonical pair row, creating it with count 1 or
// incrementing the existing count. Counts never decrement.
func (r *CooccurrenceRepository) IncrementPair(ctx context.Context, tag1, tag2 string) error {
	tag1, tag2 = domain.CanonicalPair(tag1, tag2)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tag1"}, {Name: "tag2"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":        gorm.Expr("count + 1"),
			"last_updated": time.Now(),
		}),
	}).Create(&domain.TagCooccurrence{
		Tag1:  tag1,
		Tag2:  tag2,
		Count: 1,
	}).Error
}

// ForTag retrieves the pairs containing tag in either slot, strongest first.
func (r *CooccurrenceRepository) ForTag(ctx context.Context, tag string, limit int) ([]domain.TagCooccurrence, error) {
	var pairs []domain.TagCooccurrence
	query := r.db.WithContext(ctx).
		Where("tag1 = ? OR tag2 = ?", tag, tag).
		Order("count DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}

// GetPair retrieves a single canonical pair row, or domain.ErrNotFound.
func (r *CooccurrenceRepository) GetPair(ctx context.Context, tag1, tag2 string) (*domain.TagCooccurrence, error) {
	tag1, tag2 = domain.CanonicalPair(tag1, tag2)
	var pair domain.TagCooccurrence
	err := r.db.WithContext(ctx).
		Where("tag1 = ? AND tag2 = ?", tag1, tag2).
		First(&pair).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &pair, nil
}

// Count returns the number of distinct pairs.
func (r *CooccurrenceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TagCooccurrence{}).Count(&count).Error
	return count, err
}

// DeleteAll clears the co-occurrence table. Used when the catalog is wiped.
func (r *CooccurrenceRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.TagCooccurrence{}).Error
}
