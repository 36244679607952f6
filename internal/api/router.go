package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saferoute/saferoute-backend-go/internal/auth"
	"github.com/saferoute/saferoute-backend-go/internal/handler"
	"github.com/saferoute/saferoute-backend-go/internal/middleware"
)

// Handlers bundles the HTTP handlers wired into the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	Route      *handler.RouteHandler
	Prediction *handler.PredictionHandler
	Vote       *handler.VoteHandler
	Review     *handler.ReviewHandler
	Navigation *handler.NavigationHandler
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(tokens *auth.Service, h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "SafeRoute API is running",
		})
	})

	r.POST("/auth/token", h.Auth.Token)

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(tokens))
	api.Use(middleware.RateLimit(120, time.Minute))
	{
		routes := api.Group("/routes")
		{
			routes.POST("/safest", h.Route.SafestRoutes)
		}

		zones := api.Group("/zones")
		{
			zones.GET("/dangers", h.Route.DangerZones)
		}

		locations := api.Group("/locations")
		{
			locations.GET("/:id/prediction", h.Prediction.Predict)
			locations.PUT("/:id/area-stats", h.Review.SetAreaStats)
		}

		users := api.Group("/users")
		{
			users.POST("/similarity", h.Prediction.Similarity)
		}

		api.POST("/votes", h.Vote.Cast)
		api.POST("/reviews", h.Review.Ingest)

		nav := api.Group("/navigation/sessions")
		{
			nav.POST("", h.Navigation.Start)
			nav.GET("/:id", h.Navigation.Get)
			nav.POST("/:id/position", h.Navigation.Position)
			nav.POST("/:id/alerts/:review_id/decision", h.Navigation.Decide)
			nav.DELETE("/:id", h.Navigation.End)
		}
	}

	return r
}
