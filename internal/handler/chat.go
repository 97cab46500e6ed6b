package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"wellness-backend/internal/models"
	"wellness-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// Chat runs one chat turn.
// POST /api/v1/chat
func (h *Handler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.pipeline.Chat(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Chat pipeline failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, service.ApologyResponse())
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetHistory returns the user's most recent exchanges, oldest first.
// GET /api/v1/chat/history/:userId?limit=N
func (h *Handler) GetHistory(c *gin.Context) {
	userID := c.Param("userId")

	limit := defaultHistoryLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	exchanges, err := h.exchanges.RecentExchanges(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to get chat history", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"exchanges": exchanges,
		"count":     len(exchanges),
	})
}

// ServeWS upgrades to a websocket bound to a user id.
// GET /ws?userId=...
func (h *Handler) ServeWS(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	h.hub.ServeWS(c.Writer, c.Request, userID, h.socketChat)
}

// socketChat replies to a socket message. Successful replies are published
// by the pipeline itself.
func (h *Handler) socketChat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	resp, err := h.pipeline.Chat(ctx, req)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, service.ErrValidation) {
		return nil, service.ErrValidation
	}

	h.logger.Error("Chat pipeline failed", zap.String("user_id", req.UserID), zap.Error(err))
	apology := service.ApologyResponse()
	h.hub.Publish(req.UserID, apology)
	return apology, nil
}
