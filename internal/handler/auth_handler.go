package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saferoute/saferoute-backend-go/internal/auth"
	"github.com/saferoute/saferoute-backend-go/pkg/response"
)

// AuthHandler issues device tokens.
type AuthHandler struct {
	tokens *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tokens *auth.Service) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

type tokenRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, err := h.tokens.GenerateToken(req.DeviceID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int(auth.TokenExpiry.Seconds()),
	})
}
