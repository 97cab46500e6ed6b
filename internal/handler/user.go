package handler

import (
	"net/http"

	"wellness-backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetUserRole assigns the role echoed back in chat responses.
// PUT /api/v1/admin/users/:userId/role
func (h *Handler) SetUserRole(c *gin.Context) {
	userID := c.Param("userId")

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be user or admin"})
		return
	}

	if err := h.users.SetRole(c.Request.Context(), userID, req.Role); err != nil {
		h.logger.Error("Failed to set user role", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	h.logger.Info("User role updated",
		zap.String("user_id", userID),
		zap.String("role", req.Role),
		zap.String("by", c.GetString("username")))
	c.JSON(http.StatusOK, gin.H{"userId": userID, "role": req.Role})
}
