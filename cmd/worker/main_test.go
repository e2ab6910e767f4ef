package main

import (
	"context"
	"errors"
	"testing"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/service"
	"github.com/stretchr/testify/assert"
)

type fakeQueue struct {
	queries []*domain.SearchQuery
	polls   int
}

func (q *fakeQueue) OldestPending(_ context.Context) (*domain.SearchQuery, error) {
	q.polls++
	for _, query := range q.queries {
		if query.Status == domain.QueryStatusPending {
			return query, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (q *fakeQueue) GetByID(_ context.Context, id uint) (*domain.SearchQuery, error) {
	for _, query := range q.queries {
		if query.ID == id {
			return query, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeProcessor struct {
	calls int
	run   func(queryID uint) (*service.ProcessResult, error)
}

func (p *fakeProcessor) Process(_ context.Context, queryID uint) (*service.ProcessResult, error) {
	p.calls++
	return p.run(queryID)
}

func workerTestLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error"})
}

func TestDrainQueueProcessesUntilEmpty(t *testing.T) {
	queue := &fakeQueue{queries: []*domain.SearchQuery{
		{ID: 1, Query: "schnitzmesser test", Status: domain.QueryStatusPending},
		{ID: 2, Query: "holzarten vergleich", Status: domain.QueryStatusPending},
	}}
	processor := &fakeProcessor{run: func(queryID uint) (*service.ProcessResult, error) {
		for _, query := range queue.queries {
			if query.ID == queryID {
				query.Status = domain.QueryStatusProcessed
			}
		}
		return &service.ProcessResult{NewSources: 1}, nil
	}}

	drainQueue(context.Background(), queue, processor, workerTestLogger())

	assert.Equal(t, 2, processor.calls)
	assert.Equal(t, 3, queue.polls)
}

func TestDrainQueueStopsWhenQueryStaysPending(t *testing.T) {
	queue := &fakeQueue{queries: []*domain.SearchQuery{
		{ID: 1, Query: "kerbschnitzen muster", Status: domain.QueryStatusPending},
	}}
	// The processor fails before the status ever advances, so the same
	// query would be polled again immediately.
	processor := &fakeProcessor{run: func(uint) (*service.ProcessResult, error) {
		return nil, errors.New("database locked")
	}}

	drainQueue(context.Background(), queue, processor, workerTestLogger())

	assert.Equal(t, 1, processor.calls)
	assert.Equal(t, domain.QueryStatusPending, queue.queries[0].Status)
}

func TestDrainQueueContinuesPastFailedQuery(t *testing.T) {
	queue := &fakeQueue{queries: []*domain.SearchQuery{
		{ID: 1, Query: "schnitzbank bauen", Status: domain.QueryStatusPending},
		{ID: 2, Query: "loeffel schnitzen", Status: domain.QueryStatusPending},
	}}
	processor := &fakeProcessor{run: func(queryID uint) (*service.ProcessResult, error) {
		for _, query := range queue.queries {
			if query.ID != queryID {
				continue
			}
			if queryID == 1 {
				query.Status = domain.QueryStatusFailed
				return nil, errors.New("web search failed")
			}
			query.Status = domain.QueryStatusProcessed
		}
		return &service.ProcessResult{NewSources: 1}, nil
	}}

	drainQueue(context.Background(), queue, processor, workerTestLogger())

	// The recorded failure lets the drain move on to the next query.
	assert.Equal(t, 2, processor.calls)
	assert.Equal(t, domain.QueryStatusFailed, queue.queries[0].Status)
	assert.Equal(t, domain.QueryStatusProcessed, queue.queries[1].Status)
}
