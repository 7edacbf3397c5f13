package handler

import (
	"errors"
	"net/http"

	"artdocent-backend/internal/service"
	"artdocent-backend/internal/storage"
	"artdocent-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to a status and writes {"error": ...}.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrArtworkNotFound),
		errors.Is(err, storage.ErrRecordNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrUnsupportedImage),
		errors.Is(err, storage.ErrInvalidData):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrImageTooLarge):
		status = http.StatusRequestEntityTooLarge
	}

	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
