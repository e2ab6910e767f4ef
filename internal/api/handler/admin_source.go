package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schnitzlab/curator/internal/service"
)

// AdminSourceHandler handles the authenticated source-curation endpoints.
type AdminSourceHandler struct {
	catalog   *service.CatalogService
	corrector service.TitleCorrector
}

// NewAdminSourceHandler creates a new admin source handler.
func NewAdminSourceHandler(catalog *service.CatalogService, corrector service.TitleCorrector) *AdminSourceHandler {
	return &AdminSourceHandler{
		catalog:   catalog,
		corrector: corrector,
	}
}

// CreateSource handles POST /api/v1/admin/sources.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminSourceHandler) CreateSource(c *gin.Context) {
	var input service.CreateSourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	source, err := h.catalog.CreateSource(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, source)
}

// UpdateSource handles PUT /api/v1/admin/sources/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminSourceHandler) UpdateSource(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input service.UpdateSourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	source, err := h.catalog.UpdateSource(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, source)
}

// DeleteSource handles DELETE /api/v1/admin/sources/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminSourceHandler) DeleteSource(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteSource(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": id,
	})
}

// DeleteAllSources handles DELETE /api/v1/admin/sources.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminSourceHandler) DeleteAllSources(c *gin.Context) {
	deleted, err := h.catalog.DeleteAllSources(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
	})
}

type previewRequest struct {
	URL string `json:"url" binding:"required"`
}

// PreviewSource handles POST /api/v1/admin/sources/preview. It generates
// metadata for a URL without persisting anything.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminSourceHandler) PreviewSource(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	metadata, err := h.catalog.Preview(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      req.URL,
		"metadata": metadata,
	})
}

// CorrectTitle handles POST /api/v1/admin/sources/:id/correct-title. The
// stored title is rewritten by the generative model; on model failure the
// source is returned unchanged.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminSourceHandler) CorrectTitle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	source, err := h.catalog.CorrectSourceTitle(c.Request.Context(), id, h.corrector)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, source)
}
