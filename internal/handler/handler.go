package handler

import (
	"context"
	"net/http"

	"wellness-backend/internal/models"
	"wellness-backend/internal/realtime"
	"wellness-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Chatter runs one chat turn.
type Chatter interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// BackendReporter lists the generative backends behind the pipeline.
type BackendReporter interface {
	Backends() []map[string]interface{}
}

// Handler serves the HTTP and websocket API.
type Handler struct {
	pipeline  Chatter
	backends  BackendReporter
	exchanges repository.ExchangeRepository
	training  repository.TrainingRepository
	users     repository.UserRepository
	hub       *realtime.Hub
	logger    *zap.Logger
}

// NewHandler creates a new handler. backends and hub may be nil.
func NewHandler(
	pipeline Chatter,
	backends BackendReporter,
	exchanges repository.ExchangeRepository,
	training repository.TrainingRepository,
	users repository.UserRepository,
	hub *realtime.Hub,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		pipeline:  pipeline,
		backends:  backends,
		exchanges: exchanges,
		training:  training,
		users:     users,
		hub:       hub,
		logger:    logger,
	}
}

// RegisterRoutes registers all routes. adminAuth guards the admin group.
func (h *Handler) RegisterRoutes(r *gin.Engine, adminAuth gin.HandlerFunc) {
	api := r.Group("/api/v1")
	{
		api.POST("/chat", h.Chat)
		api.GET("/chat/history/:userId", h.GetHistory)

		admin := api.Group("/admin", adminAuth)
		admin.GET("/training-candidates", h.ListTrainingCandidates)
		admin.GET("/training-candidates/stats", h.GetTrainingStats)
		admin.POST("/training-candidates/:id/processed", h.MarkTrainingCandidateProcessed)
		admin.PUT("/users/:userId/role", h.SetUserRole)
	}

	if h.hub != nil {
		r.GET("/ws", h.ServeWS)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"service": "wellness-backend",
	}
	if h.backends != nil {
		resp["backends"] = h.backends.Backends()
	}
	c.JSON(http.StatusOK, resp)
}
