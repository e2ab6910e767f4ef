package service

import (
	"context"
	"sort"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/repository"
)

// similarityTagWeight is the flat per-shared-tag weight used by
// SimilarSources. The absolute value is a tunable; ranking only requires
// monotonicity in the shared-tag count.
const similarityTagWeight = 15

// CooccurrenceService maintains pairwise tag counts and derives related tags
// and tag-overlap similarity between sources.
type CooccurrenceService struct {
	cooccurRepo *repository.CooccurrenceRepository
	sourceRepo  *repository.SourceRepository
	logger      *logger.Logger
}

// NewCooccurrenceService creates a new co-occurrence service.
func NewCooccurrenceService(
	cooccurRepo *repository.CooccurrenceRepository,
	sourceRepo *repository.SourceRepository,
	log *logger.Logger,
) *CooccurrenceService {
	return &CooccurrenceService{
		cooccurRepo: cooccurRepo,
		sourceRepo:  sourceRepo,
		logger:      log,
	}
}

func (s *CooccurrenceService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Record increments the counter of every unordered pair in the tag set.
// Fewer than two tags contribute nothing. Per-pair failures are logged and
// skipped so one bad row cannot lose the rest of the batch.
func (s *CooccurrenceService) Record(ctx context.Context, tags []string) {
	if len(tags) < 2 {
		return
	}

	for i := 0; i < len(tags); i++ {
		for j := i + 1; j < len(tags); j++ {
			if err := s.cooccurRepo.IncrementPair(ctx, tags[i], tags[j]); err != nil {
				s.log(ctx).WithFields(logger.Fields{
					"tag1": tags[i],
					"tag2": tags[j],
				}).WithError(err).Error("Failed to update tag co-occurrence")
			}
		}
	}
}

// RelatedTag is one co-occurrence neighbor of a tag.
type RelatedTag struct {
	Tag   string `json:"tag"`
	Score int    `json:"score"`
}

// RelatedTags returns up to limit tags that co-occur with tag, strongest
// first. The tag itself is never included.
func (s *CooccurrenceService) RelatedTags(ctx context.Context, tag string, limit int) ([]RelatedTag, error) {
	pairs, err := s.cooccurRepo.ForTag(ctx, tag, limit)
	if err != nil {
		return nil, err
	}

	related := make([]RelatedTag, 0, len(pairs))
	for _, pair := range pairs {
		other := pair.Tag1
		if other == tag {
			other = pair.Tag2
		}
		related = append(related, RelatedTag{Tag: other, Score: pair.Count})
	}
	return related, nil
}

// SimilarSource is a catalog source with its tag-overlap similarity score.
type SimilarSource struct {
	domain.Source
	SimilarityScore int `json:"similarity_score"`
}

// SimilarSources scans the catalog for sources sharing tags with the given
// source and returns the top limit by similarity. The source itself and
// zero-overlap sources are never returned. The scan is O(n*k) per request,
// which is fine at catalog scales in the low thousands.
func (s *CooccurrenceService) SimilarSources(ctx context.Context, sourceID uint, limit int) ([]SimilarSource, error) {
	source, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if len(source.Tags) == 0 {
		return []SimilarSource{}, nil
	}

	tagSet := make(map[string]struct{}, len(source.Tags))
	for _, tag := range source.Tags {
		tagSet[tag] = struct{}{}
	}

	all, err := s.sourceRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]SimilarSource, 0)
	for _, other := range all {
		if other.ID == sourceID {
			continue
		}
		shared := 0
		for _, tag := range other.Tags {
			if _, ok := tagSet[tag]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		scored = append(scored, SimilarSource{
			Source:          other,
			SimilarityScore: shared * similarityTagWeight,
		})
	}

	// Stable keeps catalog order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SimilarityScore > scored[j].SimilarityScore
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
