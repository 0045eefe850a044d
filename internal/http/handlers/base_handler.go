// README: Base handler utilities (JSON helpers, domain error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"moveflow/internal/modules/match"
	"moveflow/internal/modules/move"
	"moveflow/internal/modules/reference"
	"moveflow/internal/modules/request"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps module sentinel errors onto HTTP statuses so the core
// always surfaces an actionable error kind, never a raw stack.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, request.ErrNotFound),
		errors.Is(err, move.ErrNotFound),
		errors.Is(err, match.ErrNotFound),
		errors.Is(err, reference.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, reference.ErrUnrecognizedReference):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, reference.ErrIncompleteData):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, match.ErrPartialApplication):
		// Fatal: manual reconciliation required, do not mask as a conflict.
		writeError(c, http.StatusInternalServerError, err.Error())
	case errors.Is(err, match.ErrAlreadyMatched),
		errors.Is(err, match.ErrCapacityExceeded),
		errors.Is(err, match.ErrCapacityConflict),
		errors.Is(err, match.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
