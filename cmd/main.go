package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artdocent-backend/internal/config"
	"artdocent-backend/internal/handler"
	"artdocent-backend/internal/middleware"
	"artdocent-backend/internal/model"
	"artdocent-backend/internal/service"
	"artdocent-backend/internal/storage"
	"artdocent-backend/internal/tools"
	"artdocent-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx := context.Background()

	chatModel, err := model.NewChatModel(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create chat model: %v", err)
	}
	defer func() {
		if err := model.CloseChatModel(chatModel); err != nil {
			logger.Warnf("Failed to close chat model: %v", err)
		}
	}()
	docentService, err := service.NewDocentService(ctx, chatModel, cfg.Docent)
	if err != nil {
		logger.Fatalf("Failed to create docent service: %v", err)
	}

	store := storage.New(cfg.Storage)
	defer store.Close()

	objects := storage.NewDiskObjectStore(cfg.Storage.MediaDir, cfg.Storage.MediaBase)
	if err := objects.Init(); err != nil {
		logger.Fatalf("Failed to init object storage: %v", err)
	}

	galleryService := service.NewGalleryService(store, objects, cfg.Gallery)
	historyService := service.NewHistoryService(store, store, cfg.Gallery.HistoryPageSize)
	adminService := service.NewAdminService(store, cfg.Auth)
	if err := adminService.SeedAdmins(ctx, cfg.Auth.Admins); err != nil {
		logger.Fatalf("Failed to seed admins: %v", err)
	}

	deps := handler.RouterDeps{
		Docent:    handler.NewDocentHandler(docentService),
		Artworks:  handler.NewArtworkHandler(galleryService, cfg.Gallery.MaxUploadBytes),
		History:   handler.NewHistoryHandler(historyService),
		Admin:     handler.NewAdminHandler(adminService),
		Media:     handler.NewMediaHandler(objects),
		AdminAuth: middleware.AdminAuth(adminService),
	}
	if cfg.Docent.AccessKey != "" {
		deps.AccessKey = middleware.AccessKey(cfg.Docent.AccessKey)
	}

	if cfg.RateLimit.Enabled {
		limiter, err := middleware.NewLimiter(ctx, cfg.RateLimit)
		if err != nil {
			logger.Fatalf("Failed to create rate limiter: %v", err)
		}
		deps.RateLimit = middleware.RateLimit(limiter)
		logger.Infof("Docent rate limit: %d/min (burst %d, %s)", cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.Backend)
	}

	if cfg.MCP.Enabled {
		mcpServer, err := tools.NewMCPServer(ctx, galleryService, docentService)
		if err != nil {
			logger.Fatalf("Failed to create MCP server: %v", err)
		}
		deps.MCP = tools.NewMCPHandler(mcpServer, cfg.MCP.Path)
		logger.Infof("MCP tools served at %s", cfg.MCP.Path)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(cfg, deps)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d (provider %s)", cfg.Server.Port, cfg.Model.Provider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
