package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/oggyb/irlobby/internal/observability"
)

// RouterConfig wires the router's collaborators.
type RouterConfig struct {
	ServiceName string
	JWTSecret   string
	Logger      *slog.Logger
	Handler     *Handler
	// WebSocket is mounted at /ws/notifications when set.
	WebSocket gin.HandlerFunc
	// Health backs /healthz; nil reports healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(observability.HTTPMetricsMiddleware())
	r.Use(RequestLogger(cfg.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.WebSocket != nil {
		r.GET("/ws/notifications", cfg.WebSocket)
	}

	h := cfg.Handler
	api := r.Group("/api", AuthMiddleware(cfg.JWTSecret))
	api.GET("/notifications", h.Notifications)
	api.GET("/matches", h.ListMatches)
	api.GET("/conversations", h.ListConversations)
	api.POST("/conversations/:id/messages", h.PostMessage)

	api.GET("/reviews/mine", h.MyReviews)
	api.GET("/reviews/opportunities", h.ReviewOpportunities)
	api.POST("/reviews", h.SubmitReview)

	api.POST("/activities", h.CreateActivity)
	api.GET("/activities/:id", h.GetActivity)
	api.GET("/activities/:id/eligibility", h.Eligibility)
	api.POST("/activities/:id/join", h.Join)
	api.DELETE("/activities/:id/join", h.Leave)
	api.POST("/activities/:id/swipe", h.Swipe)
	api.GET("/activities/:id/swipes", h.ListSwipes)

	return r
}
