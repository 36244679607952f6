package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/service"
	"github.com/saferoute/saferoute-backend-go/pkg/response"
)

// ReviewHandler handles HTTP requests for review and area statistics
// ingestion.
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type ingestReviewRequest struct {
	ID              string                  `json:"id"`
	LocationID      string                  `json:"location_id" binding:"required"`
	LocationName    string                  `json:"location_name"`
	PlaceType       string                  `json:"place_type"`
	Location        models.Coordinate       `json:"location" binding:"required"`
	SafetyRating    float64                 `json:"safety_rating" binding:"required"`
	DemographicTags []models.DemographicTag `json:"demographic_tags"`
	CreatedAt       time.Time               `json:"created_at"`
}

// Ingest handles POST /api/v1/reviews
func (h *ReviewHandler) Ingest(c *gin.Context) {
	var req ingestReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, scores, err := h.service.Ingest(service.IngestInput{
		Review: models.Review{
			ID:              req.ID,
			LocationID:      req.LocationID,
			Location:        req.Location,
			SafetyRating:    req.SafetyRating,
			DemographicTags: req.DemographicTags,
			CreatedAt:       req.CreatedAt,
		},
		LocationName: req.LocationName,
		PlaceType:    req.PlaceType,
	})
	if err != nil {
		if eris.Is(err, service.ErrInvalidRating) {
			response.Error(c, http.StatusBadRequest, "Safety rating must be between 1 and 5", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to ingest review", err)
		return
	}

	response.Success(c, gin.H{
		"created": created,
		"scores":  scores,
	})
}

type areaStatsRequest struct {
	LocationID     string  `json:"location_id" binding:"required"`
	CrimeIndex     float64 `json:"crime_index"`
	DiversityIndex float64 `json:"diversity_index"`
	DataPointCount int     `json:"data_point_count"`
}

// SetAreaStats handles PUT /api/v1/locations/:id/area-stats
func (h *ReviewHandler) SetAreaStats(c *gin.Context) {
	var req areaStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := c.Param("id"); id != "" && id != req.LocationID {
		response.Error(c, http.StatusBadRequest, "Location ID mismatch", nil)
		return
	}

	if err := h.service.SetAreaStats(models.AreaStats{
		LocationID:     req.LocationID,
		CrimeIndex:     req.CrimeIndex,
		DiversityIndex: req.DiversityIndex,
		DataPointCount: req.DataPointCount,
	}); err != nil {
		if eris.Is(err, service.ErrInvalidAreaStats) {
			response.Error(c, http.StatusBadRequest, "Crime index must be between 0 and 100", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to store area stats", err)
		return
	}

	response.Success(c, gin.H{"location_id": req.LocationID})
}
