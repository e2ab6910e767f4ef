package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schnitzlab/curator/internal/service"
)

const defaultRelatedLimit = 10

// TagHandler handles the public tag endpoints.
type TagHandler struct {
	catalog *service.CatalogService
	cooccur *service.CooccurrenceService
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(catalog *service.CatalogService, cooccur *service.CooccurrenceService) *TagHandler {
	return &TagHandler{
		catalog: catalog,
		cooccur: cooccur,
	}
}

// ListTags handles GET /api/v1/tags.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *TagHandler) ListTags(c *gin.Context) {
	groups, totalSources, err := h.catalog.TagGroups(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":          groups,
		"total_tags":    len(groups),
		"total_sources": totalSources,
	})
}

// RelatedTags handles GET /api/v1/tags/:tag/related.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *TagHandler) RelatedTags(c *gin.Context) {
	tag := c.Param("tag")
	limit := parseIntQuery(c, "limit", defaultRelatedLimit)

	related, err := h.cooccur.RelatedTags(c.Request.Context(), tag, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tag":     tag,
		"related": related,
		"total":   len(related),
	})
}
