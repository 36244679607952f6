package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/middleware"
	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/service"
	"github.com/saferoute/saferoute-backend-go/pkg/response"
)

// NavigationHandler handles HTTP requests for live navigation sessions.
type NavigationHandler struct {
	service *service.NavigationService
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(service *service.NavigationService) *NavigationHandler {
	return &NavigationHandler{service: service}
}

type startSessionRequest struct {
	RouteID string `json:"route_id" binding:"required"`
}

// Start handles POST /api/v1/navigation/sessions
func (h *NavigationHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	state, err := h.service.Start(c.Request.Context(), middleware.DeviceID(c), req.RouteID)
	if err != nil {
		switch {
		case eris.Is(err, models.ErrRouteUnavailable):
			response.Error(c, http.StatusGone,
				"Route is unknown or expired. Request routes again.", err)
		case eris.Is(err, models.ErrPositionUnavailable):
			response.Error(c, http.StatusServiceUnavailable,
				"Position stream unavailable. Cannot start navigation.", err)
		case eris.Is(err, models.ErrInvalidSessionState):
			response.Error(c, http.StatusConflict, "Cannot start session", err)
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to start session", err)
		}
		return
	}

	response.Success(c, state)
}

type positionRequest struct {
	Position  models.Coordinate `json:"position" binding:"required"`
	Timestamp time.Time         `json:"timestamp"`
}

// Position handles POST /api/v1/navigation/sessions/:id/position
func (h *NavigationHandler) Position(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	state, alert, err := h.service.Position(c.Param("id"), req.Position, req.Timestamp)
	if err != nil {
		switch {
		case eris.Is(err, models.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, "Session not found", err)
		case eris.Is(err, models.ErrInvalidSessionState):
			response.Error(c, http.StatusConflict, "Session has ended", err)
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to process position", err)
		}
		return
	}

	response.Success(c, gin.H{
		"state": state,
		"alert": alert,
	})
}

type alertDecisionRequest struct {
	Action string `json:"action" binding:"required"`
}

// Decide handles POST /api/v1/navigation/sessions/:id/alerts/:review_id/decision
func (h *NavigationHandler) Decide(c *gin.Context) {
	var req alertDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	already, err := h.service.Decide(c.Request.Context(),
		c.Param("id"), c.Param("review_id"), req.Action)
	if err != nil {
		switch {
		case eris.Is(err, models.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, "Session not found", err)
		case eris.Is(err, models.ErrInvalidSessionState):
			response.Error(c, http.StatusConflict, "No pending alert for this review", err)
		default:
			response.Error(c, http.StatusBadRequest, "Failed to record decision", err)
		}
		return
	}

	response.Success(c, gin.H{"already_recorded": already})
}

// End handles DELETE /api/v1/navigation/sessions/:id
func (h *NavigationHandler) End(c *gin.Context) {
	if err := h.service.End(c.Param("id")); err != nil {
		if eris.Is(err, models.ErrSessionNotFound) {
			response.Error(c, http.StatusNotFound, "Session not found", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to end session", err)
		return
	}

	response.Success(c, gin.H{"ended": true})
}

// Get handles GET /api/v1/navigation/sessions/:id
func (h *NavigationHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to load session", err)
		return
	}
	if detail == nil {
		response.Error(c, http.StatusNotFound, "Session not found", nil)
		return
	}

	response.Success(c, detail)
}
