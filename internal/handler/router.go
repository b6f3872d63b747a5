package handler

import (
	"context"
	"net/http"
	"strings"

	"concierge/internal/config"
	"concierge/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// RouterDeps are the collaborators the HTTP surface needs
type RouterDeps struct {
	Chat      ChatAnswerer
	Amenities AmenityReader
	Feedback  FeedbackRecorder
	Limiter   ratelimit.Limiter // nil disables rate limiting
	Ping      func(ctx context.Context) error
	Server    config.ServerConfig
	Build     BuildInfo
	Logger    zerolog.Logger
}

// NewRouter wires middleware and routes
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrDefault(deps.Server.AllowedOrigins, "*")
	corsConfig.AllowMethods = splitOrDefault(deps.Server.AllowedMethods, "GET,POST,OPTIONS")
	corsConfig.AllowHeaders = splitOrDefault(deps.Server.AllowedHeaders, "Content-Type")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if deps.Ping != nil {
			if err := deps.Ping(c.Request.Context()); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":     status,
			"service":    "airport-concierge",
			"version":    deps.Build.Version,
			"build_time": deps.Build.BuildTime,
			"git_commit": deps.Build.GitCommit,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    deps.Build.Version,
			"build_time": deps.Build.BuildTime,
			"git_commit": deps.Build.GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chatHandler := NewChatHandler(deps.Chat, deps.Logger)
	amenityHandler := NewAmenityHandler(deps.Amenities, deps.Logger)
	feedbackHandler := NewFeedbackHandler(deps.Feedback, deps.Logger)

	apiV1 := router.Group("/api/v1")
	{
		chat := []gin.HandlerFunc{chatHandler.Chat}
		if deps.Limiter != nil {
			chat = append([]gin.HandlerFunc{RateLimit(deps.Limiter, deps.Logger)}, chat...)
		}
		apiV1.POST("/chat", chat...)

		apiV1.GET("/amenities/:slug", amenityHandler.Get)
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}

	return router
}

func splitOrDefault(value, fallback string) []string {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return config.SplitList(value)
}
