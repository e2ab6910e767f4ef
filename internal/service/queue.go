package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/repository"
)

// cancelledMessage is recorded on a query when an operator cancels it. The
// pipeline polls for the failed status between URLs and stops.
const cancelledMessage = "cancelled by operator"

// QueueService manages the search query queue that feeds the ingestion
// pipeline.
type QueueService struct {
	queryRepo  *repository.QueryRepository
	sourceRepo *repository.SourceRepository
	generator  QueryGenerator
	logger     *logger.Logger
}

// NewQueueService creates a new queue service.
func NewQueueService(
	queryRepo *repository.QueryRepository,
	sourceRepo *repository.SourceRepository,
	generator QueryGenerator,
	log *logger.Logger,
) *QueueService {
	return &QueueService{
		queryRepo:  queryRepo,
		sourceRepo: sourceRepo,
		generator:  generator,
		logger:     log,
	}
}

// Create enqueues a new pending query.
func (s *QueueService) Create(ctx context.Context, text string) (*domain.SearchQuery, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrValidation)
	}

	query := &domain.SearchQuery{
		Query:  text,
		Status: domain.QueryStatusPending,
	}
	if err := s.queryRepo.Create(ctx, query); err != nil {
		return nil, err
	}
	return query, nil
}

// Get retrieves one query by ID.
func (s *QueueService) Get(ctx context.Context, id uint) (*domain.SearchQuery, error) {
	return s.queryRepo.GetByID(ctx, id)
}

// List returns queries matching the options, actionable statuses first.
func (s *QueueService) List(ctx context.Context, opts repository.QueryListOptions) ([]domain.SearchQuery, error) {
	return s.queryRepo.List(ctx, opts)
}

// UpdateQueryInput is a partial query update; nil fields are untouched.
type UpdateQueryInput struct {
	Query  *string `json:"query"`
	Status *string `json:"status"`
}

// Update applies a partial update. Setting the status back to pending is how
// an operator requeues a failed query.
func (s *QueueService) Update(ctx context.Context, id uint, input *UpdateQueryInput) (*domain.SearchQuery, error) {
	if _, err := s.queryRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Query != nil {
		text := strings.TrimSpace(*input.Query)
		if text == "" {
			return nil, fmt.Errorf("%w: query text is required", domain.ErrValidation)
		}
		fields["query"] = text
	}
	if input.Status != nil {
		status := domain.QueryStatus(*input.Status)
		switch status {
		case domain.QueryStatusPending, domain.QueryStatusProcessing,
			domain.QueryStatusProcessed, domain.QueryStatusFailed:
		default:
			return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, *input.Status)
		}
		fields["status"] = status
		if status == domain.QueryStatusPending {
			fields["error_message"] = nil
			fields["date_processed"] = nil
		}
	}
	if len(fields) > 0 {
		if err := s.queryRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.queryRepo.GetByID(ctx, id)
}

// Delete removes one query from the queue.
func (s *QueueService) Delete(ctx context.Context, id uint) error {
	return s.queryRepo.Delete(ctx, id)
}

// Cancel flips a query to failed so a running pipeline stops at its next
// poll. Cancelling a query that already finished is a validation error.
func (s *QueueService) Cancel(ctx context.Context, id uint) (*domain.SearchQuery, error) {
	query, err := s.queryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if query.Status != domain.QueryStatusPending && query.Status != domain.QueryStatusProcessing {
		return nil, fmt.Errorf("%w: query is %s, nothing to cancel", domain.ErrValidation, query.Status)
	}

	if err := s.queryRepo.MarkFailed(ctx, id, cancelledMessage); err != nil {
		return nil, err
	}
	s.logger.WithField(logger.FieldQueryID, id).Info("Query cancelled")
	return s.queryRepo.GetByID(ctx, id)
}

// QueryStatusReport is the live progress view of one query.
type QueryStatusReport struct {
	ID            uint               `json:"id"`
	Query         string             `json:"query"`
	Status        domain.QueryStatus `json:"status"`
	ResultsCount  int                `json:"results_count"`
	SourcesInDB   int64              `json:"sources_in_db"`
	ErrorMessage  *string            `json:"error_message,omitempty"`
	DateAdded     time.Time          `json:"date_added"`
	DateProcessed *time.Time         `json:"date_processed,omitempty"`
}

// Status reports a query's state together with the live count of catalog
// sources attributed to its text. The live count can exceed results_count
// while a run is still in flight.
func (s *QueueService) Status(ctx context.Context, id uint) (*QueryStatusReport, error) {
	query, err := s.queryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inDB, err := s.sourceRepo.CountBySourceQuery(ctx, query.Query)
	if err != nil {
		return nil, err
	}

	return &QueryStatusReport{
		ID:            query.ID,
		Query:         query.Query,
		Status:        query.Status,
		ResultsCount:  query.ResultsCount,
		SourcesInDB:   inDB,
		ErrorMessage:  query.ErrorMessage,
		DateAdded:     query.DateAdded,
		DateProcessed: query.DateProcessed,
	}, nil
}

// GenerateFromTopic expands a topic into AI-generated pending queries and
// enqueues them. Blank suggestions are dropped; the rest are stored even if
// some inserts fail, with the first failure returned.
func (s *QueueService) GenerateFromTopic(ctx context.Context, topic string, count int) ([]domain.SearchQuery, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", domain.ErrValidation)
	}
	if count <= 0 {
		count = 5
	}

	suggestions, err := s.generator.GenerateQueries(ctx, topic, count)
	if err != nil {
		return nil, fmt.Errorf("query generation failed: %w", err)
	}

	created := make([]domain.SearchQuery, 0, len(suggestions))
	var firstErr error
	for _, text := range suggestions {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		query := &domain.SearchQuery{
			Query:         text,
			Status:        domain.QueryStatusPending,
			IsAIGenerated: true,
		}
		if err := s.queryRepo.Create(ctx, query); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.logger.WithError(err).WithField("query", text).Error("Failed to enqueue generated query")
			continue
		}
		created = append(created, *query)
	}

	s.logger.WithFields(logger.Fields{
		"topic":   topic,
		"created": len(created),
	}).Info("Generated queries from topic")
	return created, firstErr
}
