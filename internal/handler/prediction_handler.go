package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saferoute/saferoute-backend-go/internal/scoring"
	"github.com/saferoute/saferoute-backend-go/internal/service"
	"github.com/saferoute/saferoute-backend-go/pkg/response"
)

// PredictionHandler handles HTTP requests for blended safety predictions.
type PredictionHandler struct {
	service *service.PredictionService
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(service *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{service: service}
}

// Predict handles GET /api/v1/locations/:id/prediction
func (h *PredictionHandler) Predict(c *gin.Context) {
	locationID := c.Param("id")

	pred, err := h.service.Predict(locationID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute prediction", err)
		return
	}
	if pred == nil {
		response.Error(c, http.StatusNotFound, "Location not found", nil)
		return
	}

	response.Success(c, pred)
}

type similarityRequest struct {
	OtherUserID     string            `json:"other_user_id" binding:"required"`
	UserAttributes  map[string]string `json:"user_attributes" binding:"required"`
	OtherAttributes map[string]string `json:"other_attributes" binding:"required"`
}

// Similarity handles POST /api/v1/users/similarity
func (h *PredictionHandler) Similarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	score := h.service.Similarity(req.OtherUserID,
		scoring.UserAttributes(req.UserAttributes),
		scoring.UserAttributes(req.OtherAttributes))

	response.Success(c, score)
}
