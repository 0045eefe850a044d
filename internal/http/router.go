// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moveflow/internal/http/handlers"
	"moveflow/internal/http/middleware"
	"moveflow/internal/logger"
	"moveflow/internal/modules/match"
	"moveflow/internal/modules/matching"
	"moveflow/internal/modules/move"
	"moveflow/internal/modules/reference"
	"moveflow/internal/modules/request"
)

type RouterDeps struct {
	Requests  *request.Store
	Moves     *move.Store
	Generator *matching.Generator
	Lifecycle *match.Service
	Reference *reference.Resolver
	Log       *logger.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))

	requestHandler := handlers.NewRequestHandler(deps.Requests)
	r.POST("/api/requests", requestHandler.Create)
	r.GET("/api/requests/:id", requestHandler.Get)

	moveHandler := handlers.NewMoveHandler(deps.Moves)
	r.POST("/api/moves", moveHandler.Create)
	r.GET("/api/moves/:id", moveHandler.Get)

	matchingHandler := handlers.NewMatchingHandler(deps.Requests, deps.Generator)
	r.GET("/api/matching/candidates", matchingHandler.Candidates)

	matchHandler := handlers.NewMatchHandler(deps.Lifecycle)
	r.POST("/api/matches/accept", matchHandler.Accept)
	r.POST("/api/matches/reject", matchHandler.Reject)
	r.POST("/api/matches/:id/complete", matchHandler.Complete)
	r.GET("/api/matches/:id", matchHandler.Get)

	referenceHandler := handlers.NewReferenceHandler(deps.Reference)
	r.GET("/api/references/:code", referenceHandler.Resolve)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
