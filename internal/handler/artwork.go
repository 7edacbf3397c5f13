package handler

import (
	"io"
	"net/http"
	"strconv"

	"artdocent-backend/internal/model"
	"artdocent-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ArtworkHandler struct {
	gallery        *service.GalleryService
	maxUploadBytes int64
}

func NewArtworkHandler(gallery *service.GalleryService, maxUploadBytes int64) *ArtworkHandler {
	return &ArtworkHandler{
		gallery:        gallery,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ArtworkHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.gallery.ListArtworks(c.Request.Context(), c.Query("category"), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ArtworkHandler) Search(c *gin.Context) {
	items, err := h.gallery.SearchArtworks(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get returns the artwork and counts the visit.
func (h *ArtworkHandler) Get(c *gin.Context) {
	artwork, err := h.gallery.RecordView(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artwork)
}

func (h *ArtworkHandler) Related(c *gin.Context) {
	items, err := h.gallery.RelatedArtworks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ArtworkHandler) Like(c *gin.Context) {
	artwork, err := h.gallery.Like(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": artwork.ID, "likes": artwork.Likes})
}

// Create accepts a multipart form with the artwork fields and an "image" file.
func (h *ArtworkHandler) Create(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artwork, err := h.gallery.CreateArtwork(c.Request.Context(), service.ArtworkUpload{
		Title:    c.PostForm("title"),
		Artist:   c.PostForm("artist"),
		Year:     c.PostForm("year"),
		Location: c.PostForm("location"),
		Category: c.PostForm("category"),
		YouTube:  c.PostForm("youtube"),
		Image:    data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artwork)
}

func (h *ArtworkHandler) Update(c *gin.Context) {
	var req model.UpdateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artwork, err := h.gallery.UpdateArtwork(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artwork)
}

func (h *ArtworkHandler) Delete(c *gin.Context) {
	if err := h.gallery.DeleteArtwork(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Artwork deleted successfully"})
}
