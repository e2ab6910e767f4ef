package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/repository"
)

// CatalogService exposes the curated source catalog: listing with filters,
// manual curation (create/update/delete), stats, tag groupings, and metadata
// preview for a URL before persisting anything.
type CatalogService struct {
	sourceRepo  *repository.SourceRepository
	cooccurRepo *repository.CooccurrenceRepository
	cooccur     *CooccurrenceService
	generator   MetadataGenerator
	fetcher     PageFetcher
	logger      *logger.Logger

	fetchTimeout time.Duration
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	sourceRepo *repository.SourceRepository,
	cooccurRepo *repository.CooccurrenceRepository,
	cooccur *CooccurrenceService,
	generator MetadataGenerator,
	fetcher PageFetcher,
	log *logger.Logger,
	fetchTimeout time.Duration,
) *CatalogService {
	if fetchTimeout <= 0 {
		fetchTimeout = 8 * time.Second
	}
	return &CatalogService{
		sourceRepo:   sourceRepo,
		cooccurRepo:  cooccurRepo,
		cooccur:      cooccur,
		generator:    generator,
		fetcher:      fetcher,
		logger:       log,
		fetchTimeout: fetchTimeout,
	}
}

// SourceFilter narrows ListSources results. Search matches title, URL,
// summary, and tags case-insensitively; MinScore applies to the display
// score (operator override wins over the generated score).
type SourceFilter struct {
	Search      string
	Category    string
	Language    string
	Tag         string
	MinScore    int
	StarredOnly bool
	Page        int
	Limit       int
}

// SourceList is a page of catalog sources.
type SourceList struct {
	Sources    []domain.Source `json:"sources"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// ListSources returns the catalog page matching the filter, newest first.
// Tag and text filters need the decoded tag lists, so they run in memory
// over the category/language/starred pre-filtered set; the catalog operates
// at scales where that scan is cheap.
func (s *CatalogService) ListSources(ctx context.Context, filter SourceFilter) (*SourceList, error) {
	sources, _, err := s.sourceRepo.List(ctx, repository.SourceListOptions{
		Category:    filter.Category,
		Language:    filter.Language,
		StarredOnly: filter.StarredOnly,
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Source, 0, len(sources))
	search := strings.ToLower(filter.Search)
	for _, source := range sources {
		if search != "" && !matchesSearch(&source, search) {
			continue
		}
		if filter.Tag != "" && !source.HasTag(filter.Tag) {
			continue
		}
		if filter.MinScore > 0 && source.DisplayScore() < filter.MinScore {
			continue
		}
		filtered = append(filtered, source)
	}

	total := len(filtered)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	totalPages := 1
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
		if totalPages < 1 {
			totalPages = 1
		}
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}
		filtered = filtered[start:end]
	}

	return &SourceList{
		Sources:    filtered,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func matchesSearch(source *domain.Source, search string) bool {
	if strings.Contains(strings.ToLower(source.Title), search) ||
		strings.Contains(strings.ToLower(source.URL), search) ||
		strings.Contains(strings.ToLower(source.Summary), search) {
		return true
	}
	for _, tag := range source.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// GetSource retrieves one source by ID.
func (s *CatalogService) GetSource(ctx context.Context, id uint) (*domain.Source, error) {
	return s.sourceRepo.GetByID(ctx, id)
}

// CreateSourceInput is a manually curated source.
type CreateSourceInput struct {
	URL            string   `json:"url" binding:"required"`
	Title          string   `json:"title" binding:"required"`
	Category       string   `json:"category"`
	Summary        string   `json:"summary"`
	Tags           []string `json:"tags"`
	Language       string   `json:"language"`
	RelevanceScore *int     `json:"relevance_score"`
	SourceQuery    *string  `json:"source_query"`
	StarRating     bool     `json:"star_rating"`
}

// CreateSource persists a manually added source and records its tag
// co-occurrences. A duplicate URL returns domain.ErrDuplicateURL with no
// side effects.
func (s *CatalogService) CreateSource(ctx context.Context, input *CreateSourceInput) (*domain.Source, error) {
	if strings.TrimSpace(input.URL) == "" || strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: url and title are required", domain.ErrValidation)
	}

	source := &domain.Source{
		URL:            strings.TrimSpace(input.URL),
		Title:          input.Title,
		Category:       input.Category,
		Summary:        input.Summary,
		Tags:           input.Tags,
		Language:       input.Language,
		SourceQuery:    input.SourceQuery,
		RelevanceScore: 5,
		StarRating:     input.StarRating,
	}
	if source.Category == "" {
		source.Category = domain.CategorySonstiges
	}
	if source.Language == "" {
		source.Language = "Deutsch"
	}
	if input.RelevanceScore != nil {
		source.RelevanceScore = clampScore(*input.RelevanceScore)
	}
	if source.Tags == nil {
		source.Tags = []string{}
	}

	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, err
	}

	if len(source.Tags) > 0 {
		s.cooccur.Record(ctx, source.Tags)
	}
	return source, nil
}

// UpdateSourceInput is a partial source update; nil fields are untouched.
type UpdateSourceInput struct {
	Title          *string   `json:"title"`
	Category       *string   `json:"category"`
	Summary        *string   `json:"summary"`
	Tags           *[]string `json:"tags"`
	Language       *string   `json:"language"`
	CorrectedScore *int      `json:"corrected_score"`
	StarRating     *bool     `json:"star_rating"`
}

// UpdateSource applies a partial update and bumps last_updated.
func (s *CatalogService) UpdateSource(ctx context.Context, id uint, input *UpdateSourceInput) (*domain.Source, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		source.Title = *input.Title
	}
	if input.Category != nil {
		source.Category = *input.Category
	}
	if input.Summary != nil {
		source.Summary = *input.Summary
	}
	if input.Tags != nil {
		source.Tags = *input.Tags
	}
	if input.Language != nil {
		source.Language = *input.Language
	}
	if input.CorrectedScore != nil {
		clamped := clampScore(*input.CorrectedScore)
		source.CorrectedScore = &clamped
	}
	if input.StarRating != nil {
		source.StarRating = *input.StarRating
	}
	source.LastUpdated = time.Now()

	if err := s.sourceRepo.Update(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

// DeleteSource removes one source. Co-occurrence counts are derived state
// and deliberately not decremented; they only ever grow.
func (s *CatalogService) DeleteSource(ctx context.Context, id uint) error {
	return s.sourceRepo.Delete(ctx, id)
}

// DeleteAllSources wipes the catalog and the derived co-occurrence table.
func (s *CatalogService) DeleteAllSources(ctx context.Context) (int64, error) {
	deleted, err := s.sourceRepo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cooccurRepo.DeleteAll(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// CatalogStats summarizes the catalog for the public stats endpoint.
type CatalogStats struct {
	TotalSources    int64            `json:"total_sources"`
	StarredSources  int64            `json:"starred_sources"`
	CategoriesCount int              `json:"categories_count"`
	LanguagesCount  int              `json:"languages_count"`
	Categories      map[string]int64 `json:"categories"`
	Languages       map[string]int64 `json:"languages"`
}

// Stats computes catalog totals and category/language histograms.
func (s *CatalogService) Stats(ctx context.Context) (*CatalogStats, error) {
	starred, err := s.sourceRepo.CountStarred(ctx)
	if err != nil {
		return nil, err
	}

	sources, err := s.sourceRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]int64)
	languages := make(map[string]int64)
	for _, source := range sources {
		categories[source.Category]++
		languages[source.Language]++
	}

	return &CatalogStats{
		TotalSources:    int64(len(sources)),
		StarredSources:  starred,
		CategoriesCount: len(categories),
		LanguagesCount:  len(languages),
		Categories:      categories,
		Languages:       languages,
	}, nil
}

// TagSourceRef is a compact source reference inside a tag group.
type TagSourceRef struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
	Score    int    `json:"score"`
}

// TagGroup is one tag with every source carrying it.
type TagGroup struct {
	Tag     string         `json:"tag"`
	Count   int            `json:"count"`
	Sources []TagSourceRef `json:"sources"`
}

// TagGroups lists every tag with its member sources, most-used tags first,
// members by display score. Ties between tags break alphabetically so the
// listing is deterministic.
func (s *CatalogService) TagGroups(ctx context.Context) ([]TagGroup, int, error) {
	sources, err := s.sourceRepo.All(ctx)
	if err != nil {
		return nil, 0, err
	}

	byTag := make(map[string][]TagSourceRef)
	for _, source := range sources {
		ref := TagSourceRef{
			ID:       source.ID,
			Title:    source.Title,
			URL:      source.URL,
			Category: source.Category,
			Summary:  source.Summary,
			Score:    source.DisplayScore(),
		}
		for _, tag := range source.Tags {
			byTag[tag] = append(byTag[tag], ref)
		}
	}

	groups := make([]TagGroup, 0, len(byTag))
	for tag, refs := range byTag {
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].Score > refs[j].Score
		})
		groups = append(groups, TagGroup{Tag: tag, Count: len(refs), Sources: refs})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Tag < groups[j].Tag
	})

	return groups, len(sources), nil
}

// Preview fetches a URL best-effort and returns generated metadata without
// persisting anything. Lets the operator inspect before adding manually.
func (s *CatalogService) Preview(ctx context.Context, url string) (*domain.SourceMetadata, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrValidation)
	}

	content, err := s.fetcher.Fetch(ctx, url, s.fetchTimeout)
	if err != nil {
		s.logger.WithError(err).Warn("Preview fetch failed, generating from URL only")
		content = ""
	}
	return s.generator.GenerateMetadata(ctx, url, content)
}

// TitleCorrector fixes a source title via the generative-AI service,
// returning the original on any failure.
type TitleCorrector interface {
	CorrectTitle(ctx context.Context, title, url, summary string) string
}

// CorrectSourceTitle rewrites a source's title through the corrector and
// persists the result. A no-change correction is not an error.
func (s *CatalogService) CorrectSourceTitle(ctx context.Context, id uint, corrector TitleCorrector) (*domain.Source, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	corrected := corrector.CorrectTitle(ctx, source.Title, source.URL, source.Summary)
	if corrected == source.Title {
		return source, nil
	}

	source.Title = corrected
	source.LastUpdated = time.Now()
	if err := s.sourceRepo.Update(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}
