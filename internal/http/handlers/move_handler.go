// README: Move handlers for create/get.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moveflow/internal/modules/move"
	"moveflow/internal/modules/reference"
	"moveflow/internal/types"
)

type MoveHandler struct {
	store *move.Store
}

func NewMoveHandler(store *move.Store) *MoveHandler {
	return &MoveHandler{store: store}
}

type createMoveReq struct {
	OriginPostal  string  `json:"origin_postal" binding:"required"`
	OriginCity    string  `json:"origin_city"`
	DestPostal    string  `json:"dest_postal" binding:"required"`
	DestCity      string  `json:"dest_city"`
	DepartureDate string  `json:"departure_date"` // YYYY-MM-DD, optional
	Capacity      float64 `json:"capacity"`
}

func (h *MoveHandler) Create(c *gin.Context) {
	var req createMoveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	var departure *time.Time
	if req.DepartureDate != "" {
		t, err := time.Parse("2006-01-02", req.DepartureDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "departure_date must be YYYY-MM-DD")
			return
		}
		departure = &t
	}

	m := &move.Move{
		OriginPostal:  req.OriginPostal,
		OriginCity:    req.OriginCity,
		DestPostal:    req.DestPostal,
		DestCity:      req.DestCity,
		DepartureDate: departure,
		Capacity:      req.Capacity,
		Status:        move.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.store.Create(c.Request.Context(), m); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"id":        m.ID,
		"reference": reference.Format(reference.KindMove, m.ID),
		"capacity":  m.Capacity,
		"status":    m.Status,
	})
}

func (h *MoveHandler) Get(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid move id")
		return
	}
	m, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, m)
}
