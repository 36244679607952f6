package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/service"
	"github.com/saferoute/saferoute-backend-go/pkg/response"
)

// RouteHandler handles HTTP requests for safety-ranked routes and danger
// zones.
type RouteHandler struct {
	service *service.RouteService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(service *service.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

type safestRoutesRequest struct {
	Origin      models.Coordinate `json:"origin" binding:"required"`
	Destination models.Coordinate `json:"destination" binding:"required"`
}

// SafestRoutes handles POST /api/v1/routes/safest
func (h *RouteHandler) SafestRoutes(c *gin.Context) {
	var req safestRoutesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	routes, err := h.service.SafestRoutes(c.Request.Context(), req.Origin, req.Destination)
	if err != nil {
		if eris.Is(err, models.ErrRouteUnavailable) {
			response.Error(c, http.StatusServiceUnavailable,
				"No route available right now. Please try again.", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to compute routes", err)
		return
	}

	response.Success(c, gin.H{
		"routes": routes,
		"count":  len(routes),
	})
}

type dangerZonesQuery struct {
	Latitude     float64 `form:"latitude" binding:"required"`
	Longitude    float64 `form:"longitude" binding:"required"`
	RadiusMeters float64 `form:"radius_m"`
}

// DangerZones handles GET /api/v1/zones/dangers
func (h *RouteHandler) DangerZones(c *gin.Context) {
	var q dangerZonesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	zones, err := h.service.DangerZones(models.Coordinate{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
	}, q.RadiusMeters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute danger zones", err)
		return
	}

	response.Success(c, gin.H{
		"zones": zones,
		"count": len(zones),
	})
}
