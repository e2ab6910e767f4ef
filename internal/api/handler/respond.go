package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schnitzlab/curator/internal/domain"
)

// writeError maps domain sentinel errors onto HTTP status codes. Anything
// unrecognized is a 500.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateURL):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}

// parseID reads the :id path parameter. A zero return with false means the
// response has already been written.
func parseID(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid id parameter",
		})
		return 0, false
	}
	return id, true
}
