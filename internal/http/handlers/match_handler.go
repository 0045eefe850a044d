// README: Match lifecycle handlers: accept, reject, complete, get.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moveflow/internal/modules/match"
	"moveflow/internal/types"
)

type MatchHandler struct {
	lifecycle *match.Service
}

func NewMatchHandler(lifecycle *match.Service) *MatchHandler {
	return &MatchHandler{lifecycle: lifecycle}
}

type acceptReq struct {
	RequestID      int64   `json:"request_id" binding:"required"`
	MoveID         int64   `json:"move_id" binding:"required"`
	DistanceKm     float64 `json:"distance_km"`
	DateDiffDays   int     `json:"date_diff_days"`
	CombinedVolume float64 `json:"combined_volume"`
	IsValid        bool    `json:"is_valid"`
}

func (h *MatchHandler) Accept(c *gin.Context) {
	var req acceptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	rec, err := h.lifecycle.Accept(c.Request.Context(), match.AcceptCommand{
		RequestID:      types.ID(req.RequestID),
		MoveID:         types.ID(req.MoveID),
		DistanceKm:     req.DistanceKm,
		DateDiffDays:   req.DateDiffDays,
		CombinedVolume: req.CombinedVolume,
		IsValid:        req.IsValid,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"id":         rec.ID,
		"reference":  rec.Reference(),
		"match_type": rec.Type,
		"volume_ok":  rec.VolumeOK,
	})
}

type rejectReq struct {
	RequestID    int64   `json:"request_id" binding:"required"`
	MoveID       *int64  `json:"move_id"`
	DistanceKm   float64 `json:"distance_km"`
	DateDiffDays int     `json:"date_diff_days"`
}

func (h *MatchHandler) Reject(c *gin.Context) {
	var req rejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	cmd := match.RejectCommand{
		RequestID:    types.ID(req.RequestID),
		DistanceKm:   req.DistanceKm,
		DateDiffDays: req.DateDiffDays,
	}
	if req.MoveID != nil {
		id := types.ID(*req.MoveID)
		cmd.MoveID = &id
	}
	rec, err := h.lifecycle.Reject(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"id":         rec.ID,
		"reference":  rec.Reference(),
		"match_type": rec.Type,
	})
}

func (h *MatchHandler) Complete(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid match id")
		return
	}
	rec, err := h.lifecycle.Complete(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"id":         rec.ID,
		"reference":  rec.Reference(),
		"match_type": rec.Type,
	})
}

func (h *MatchHandler) Get(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid match id")
		return
	}
	rec, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, rec)
}
