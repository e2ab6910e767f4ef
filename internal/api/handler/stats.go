package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schnitzlab/curator/internal/service"
)

// StatsHandler handles the public stats endpoint.
type StatsHandler struct {
	catalog *service.CatalogService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(catalog *service.CatalogService) *StatsHandler {
	return &StatsHandler{catalog: catalog}
}

// GetStats handles GET /api/v1/stats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
