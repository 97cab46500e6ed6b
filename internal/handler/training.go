package handler

import (
	"errors"
	"net/http"
	"strconv"

	"wellness-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListTrainingCandidates returns training candidates, newest first.
// GET /api/v1/admin/training-candidates?processed=false&limit=N
func (h *Handler) ListTrainingCandidates(c *gin.Context) {
	var processed *bool
	if s := c.Query("processed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid processed flag"})
			return
		}
		processed = &v
	}

	limit := 100
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, 1000)
	}

	entries, err := h.training.List(c.Request.Context(), processed, limit)
	if err != nil {
		h.logger.Error("Failed to get training candidates", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch training candidates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// MarkTrainingCandidateProcessed flags a candidate as consumed by offline training.
// POST /api/v1/admin/training-candidates/:id/processed
func (h *Handler) MarkTrainingCandidateProcessed(c *gin.Context) {
	id := c.Param("id")

	err := h.training.MarkProcessed(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Training candidate not found"})
			return
		}
		h.logger.Error("Failed to mark training candidate processed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update training candidate"})
		return
	}

	h.logger.Info("Training candidate processed",
		zap.String("id", id),
		zap.String("by", c.GetString("username")))
	c.JSON(http.StatusOK, gin.H{"id": id, "processed": true})
}

// GetTrainingStats returns counts by source and processed flag.
// GET /api/v1/admin/training-candidates/stats
func (h *Handler) GetTrainingStats(c *gin.Context) {
	stats, err := h.training.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get training stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
