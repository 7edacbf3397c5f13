package handler

import (
	"errors"
	"net/http"

	"artdocent-backend/internal/middleware"
	"artdocent-backend/internal/model"
	"artdocent-backend/internal/service"
	"artdocent-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admins *service.AdminService
}

func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.admins.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAuthDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Errorf("admin login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
	}
}

// Me echoes the authenticated admin; the dashboard uses it to check a
// stored token.
func (h *AdminHandler) Me(c *gin.Context) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, admin)
}
