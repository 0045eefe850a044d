// README: Candidate generation endpoint over the pending request pool.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"moveflow/internal/modules/matching"
	"moveflow/internal/modules/request"
)

// RequestLister supplies the immutable snapshot the generator scans.
type RequestLister interface {
	ListPending(ctx context.Context) ([]request.Request, error)
}

type MatchingHandler struct {
	requests  RequestLister
	generator *matching.Generator
}

func NewMatchingHandler(requests RequestLister, generator *matching.Generator) *MatchingHandler {
	return &MatchingHandler{requests: requests, generator: generator}
}

func (h *MatchingHandler) Candidates(c *gin.Context) {
	pool, err := h.requests.ListPending(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	candidates, err := h.generator.Generate(c.Request.Context(), pool)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if candidates == nil {
		candidates = []matching.Candidate{}
	}
	writeJSON(c, http.StatusOK, gin.H{
		"pool_size":  len(pool),
		"candidates": candidates,
	})
}
