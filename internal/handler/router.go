package handler

import (
	"net/http"
	"time"

	"artdocent-backend/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Docent   *DocentHandler
	Artworks *ArtworkHandler
	History  *HistoryHandler
	Admin    *AdminHandler
	Media    *MediaHandler

	AdminAuth gin.HandlerFunc
	// RateLimit and AccessKey guard every route that reaches the docent
	// model, the proxy and MCP alike; nil disables either.
	RateLimit gin.HandlerFunc
	AccessKey gin.HandlerFunc
	// MCP is mounted at cfg.MCP.Path when non-nil.
	MCP http.Handler
}

func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	if cfg.Gallery.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.Gallery.MaxUploadBytes
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"provider":  cfg.Model.Provider,
			"timestamp": time.Now().Unix(),
		})
	})

	router.GET("/media/*path", deps.Media.Serve)

	api := router.Group("/api")
	{
		docent := append([]gin.HandlerFunc{RequirePost}, deps.docentGuards()...)
		docent = append(docent, deps.Docent.Ask)
		api.Any("/chatGPT", docent...)
		api.Any("/docent", docent...)

		artworks := api.Group("/artworks")
		{
			artworks.GET("", deps.Artworks.List)
			artworks.GET("/search", deps.Artworks.Search)
			artworks.GET("/:id", deps.Artworks.Get)
			artworks.GET("/:id/related", deps.Artworks.Related)
			artworks.POST("/:id/like", deps.Artworks.Like)
		}

		api.POST("/history", deps.History.Save)
		api.GET("/history", deps.History.List)

		api.POST("/admin/login", deps.Admin.Login)

		admin := api.Group("/admin", deps.AdminAuth)
		{
			admin.GET("/me", deps.Admin.Me)
			admin.POST("/artworks", deps.Artworks.Create)
			admin.PUT("/artworks/:id", deps.Artworks.Update)
			admin.DELETE("/artworks/:id", deps.Artworks.Delete)
			admin.DELETE("/history/:id", deps.History.Delete)
		}
	}

	if deps.MCP != nil && cfg.MCP.Path != "" {
		mcp := append(deps.docentGuards(), gin.WrapH(deps.MCP))
		router.Any(cfg.MCP.Path, mcp...)
	}

	return router
}

func (d RouterDeps) docentGuards() []gin.HandlerFunc {
	var guards []gin.HandlerFunc
	if d.RateLimit != nil {
		guards = append(guards, d.RateLimit)
	}
	if d.AccessKey != nil {
		guards = append(guards, d.AccessKey)
	}
	return guards
}
