package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/repository"
	"github.com/schnitzlab/curator/internal/service"
)

// AdminQueryHandler handles the authenticated query-queue endpoints.
type AdminQueryHandler struct {
	queue    *service.QueueService
	pipeline *service.Pipeline
}

// NewAdminQueryHandler creates a new admin query handler.
func NewAdminQueryHandler(queue *service.QueueService, pipeline *service.Pipeline) *AdminQueryHandler {
	return &AdminQueryHandler{
		queue:    queue,
		pipeline: pipeline,
	}
}

type createQueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// CreateQuery handles POST /api/v1/admin/queries.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) CreateQuery(c *gin.Context) {
	var req createQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	query, err := h.queue.Create(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, query)
}

// ListQueries handles GET /api/v1/admin/queries. Actionable statuses sort
// first (pending, processing, failed, processed).
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) ListQueries(c *gin.Context) {
	opts := repository.QueryListOptions{
		Status:      domain.QueryStatus(c.Query("status")),
		Search:      c.Query("search"),
		AIGenerated: c.Query("ai_generated") == "true",
	}

	queries, err := h.queue.List(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queries": queries,
		"total":   len(queries),
	})
}

// UpdateQuery handles PUT /api/v1/admin/queries/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) UpdateQuery(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input service.UpdateQueryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	query, err := h.queue.Update(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, query)
}

// DeleteQuery handles DELETE /api/v1/admin/queries/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) DeleteQuery(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.queue.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": id,
	})
}

// ProcessQuery handles POST /api/v1/admin/queries/:id/process. The pipeline
// runs synchronously within the request under the request processing budget.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) ProcessQuery(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.pipeline.Process(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelQuery handles POST /api/v1/admin/queries/:id/cancel.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) CancelQuery(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	query, err := h.queue.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, query)
}

// QueryStatus handles GET /api/v1/admin/queries/:id/status. It includes the
// live catalog count for the query text so progress can be polled mid-run.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) QueryStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.queue.Status(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

type generateQueriesRequest struct {
	Topic string `json:"topic" binding:"required"`
	Count int    `json:"count"`
}

// GenerateQueries handles POST /api/v1/admin/queries/generate. Suggested
// queries are enqueued as pending and flagged as AI-generated.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminQueryHandler) GenerateQueries(c *gin.Context) {
	var req generateQueriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	queries, err := h.queue.GenerateFromTopic(c.Request.Context(), req.Topic, req.Count)
	if err != nil && len(queries) == 0 {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"queries": queries,
		"total":   len(queries),
	})
}
