// README: Reference code resolution endpoint.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moveflow/internal/modules/reference"
)

type ReferenceHandler struct {
	resolver *reference.Resolver
}

func NewReferenceHandler(resolver *reference.Resolver) *ReferenceHandler {
	return &ReferenceHandler{resolver: resolver}
}

func (h *ReferenceHandler) Resolve(c *gin.Context) {
	resolved, err := h.resolver.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resolved)
}
