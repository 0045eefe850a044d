// README: Transportation request handlers for create/get.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moveflow/internal/modules/reference"
	"moveflow/internal/modules/request"
	"moveflow/internal/types"
)

type RequestHandler struct {
	store *request.Store
}

func NewRequestHandler(store *request.Store) *RequestHandler {
	return &RequestHandler{store: store}
}

type createRequestReq struct {
	OriginPostal    string  `json:"origin_postal" binding:"required"`
	OriginCity      string  `json:"origin_city"`
	DestPostal      string  `json:"dest_postal" binding:"required"`
	DestCity        string  `json:"dest_city"`
	DesiredDate     string  `json:"desired_date"` // YYYY-MM-DD, optional
	EstimatedVolume float64 `json:"estimated_volume"`
}

func (h *RequestHandler) Create(c *gin.Context) {
	var req createRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	var desired *time.Time
	if req.DesiredDate != "" {
		t, err := time.Parse("2006-01-02", req.DesiredDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "desired_date must be YYYY-MM-DD")
			return
		}
		desired = &t
	}

	r := &request.Request{
		OriginPostal:    req.OriginPostal,
		OriginCity:      req.OriginCity,
		DestPostal:      req.DestPostal,
		DestCity:        req.DestCity,
		DesiredDate:     desired,
		EstimatedVolume: req.EstimatedVolume,
		Status:          request.StatusPending,
		MatchStatus:     request.MatchUnmatched,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.store.Create(c.Request.Context(), r); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"id":        r.ID,
		"reference": reference.Format(reference.KindClient, r.ID),
		"status":    r.Status,
	})
}

func (h *RequestHandler) Get(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid request id")
		return
	}
	r, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
