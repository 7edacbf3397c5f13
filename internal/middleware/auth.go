package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"artdocent-backend/internal/model"
	"artdocent-backend/internal/service"
	"artdocent-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const AdminContextKey = "admin"

type AdminAuthorizer interface {
	Authorize(ctx context.Context, token string) (*model.Admin, error)
}

// AdminAuth requires a bearer token whose subject is a current admin.
// Missing or invalid tokens get 401, non-admin subjects 403.
func AdminAuth(authorizer AdminAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		admin, err := authorizer.Authorize(c.Request.Context(), strings.TrimSpace(token))
		switch {
		case err == nil:
		case errors.Is(err, service.ErrNotAdmin):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrInvalidToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		default:
			logger.Errorf("admin authorization failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization failed"})
			return
		}

		c.Set(AdminContextKey, admin)
		c.Next()
	}
}

// CurrentAdmin returns the admin stored by AdminAuth.
func CurrentAdmin(c *gin.Context) (*model.Admin, bool) {
	v, ok := c.Get(AdminContextKey)
	if !ok {
		return nil, false
	}
	admin, ok := v.(*model.Admin)
	return admin, ok
}
