package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const AccessKeyHeader = "X-Docent-Key"

// AccessKey rejects requests whose X-Docent-Key header does not match key.
// An empty key lets everything through.
func AccessKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(AccessKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid docent access key"})
			return
		}
		c.Next()
	}
}
