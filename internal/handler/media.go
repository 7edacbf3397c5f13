package handler

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"artdocent-backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	objects storage.ObjectStore
}

func NewMediaHandler(objects storage.ObjectStore) *MediaHandler {
	return &MediaHandler{objects: objects}
}

// Serve streams an uploaded object addressed by the *path wildcard.
func (h *MediaHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")

	rc, err := h.objects.Open(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
