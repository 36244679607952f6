package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/middleware"
	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/service"
	"github.com/saferoute/saferoute-backend-go/pkg/response"
)

// VoteHandler handles HTTP requests for prediction accuracy votes.
type VoteHandler struct {
	service *service.VoteService
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(service *service.VoteService) *VoteHandler {
	return &VoteHandler{service: service}
}

type castVoteRequest struct {
	LocationID       string  `json:"location_id" binding:"required"`
	VoteType         string  `json:"vote_type" binding:"required"`
	PredictionSource string  `json:"prediction_source"`
	PredictedScore   float64 `json:"predicted_score"`
}

// Cast handles POST /api/v1/votes
func (h *VoteHandler) Cast(c *gin.Context) {
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	outcome, err := h.service.Cast(models.PredictionVote{
		UserID:           middleware.DeviceID(c),
		LocationID:       req.LocationID,
		VoteType:         req.VoteType,
		PredictionSource: req.PredictionSource,
		PredictedScore:   req.PredictedScore,
	})
	if err != nil {
		if eris.Is(err, service.ErrUnknownVoteType) {
			response.Error(c, http.StatusBadRequest, "Vote type must be accurate or inaccurate", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to record vote", err)
		return
	}
	if outcome == nil {
		response.Error(c, http.StatusNotFound, "Location not found", nil)
		return
	}

	response.Success(c, outcome)
}
