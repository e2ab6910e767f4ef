package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/schnitzlab/curator/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultSimilarLimit = 5
)

// SourceHandler handles the public catalog endpoints.
type SourceHandler struct {
	catalog *service.CatalogService
	cooccur *service.CooccurrenceService
}

// NewSourceHandler creates a new source handler.
// Parameters:
//   - catalog: catalog service instance.
//   - cooccur: co-occurrence service instance.
// Returns:
//   - *SourceHandler: initialized handler.
func NewSourceHandler(catalog *service.CatalogService, cooccur *service.CooccurrenceService) *SourceHandler {
	return &SourceHandler{
		catalog: catalog,
		cooccur: cooccur,
	}
}

// ListSources handles GET /api/v1/sources.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) ListSources(c *gin.Context) {
	filter := service.SourceFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Language: c.Query("language"),
		Tag:      c.Query("tag"),
		Page:     parseIntQuery(c, "page", 1),
		Limit:    parseIntQuery(c, "limit", defaultPageSize),
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	filter.MinScore = parseIntQuery(c, "min_score", 0)
	filter.StarredOnly = c.Query("starred") == "true"

	list, err := h.catalog.ListSources(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetSource handles GET /api/v1/sources/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) GetSource(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	source, err := h.catalog.GetSource(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, source)
}

// SimilarSources handles GET /api/v1/sources/:id/similar.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) SimilarSources(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", defaultSimilarLimit)

	similar, err := h.cooccur.SimilarSources(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"similar": similar,
		"total":   len(similar),
	})
}

// parseIntQuery reads an optional integer query parameter with a fallback.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// parseUintParam parses a path parameter as an unsigned integer ID.
func parseUintParam(raw string) (uint, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
