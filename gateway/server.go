package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pterm/pterm"
)

const shutdownTimeout = 5 * time.Second

// NewRouter registers every route on a fresh gin engine.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(handler.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	api.GET("/state", handler.GetState)
	api.POST("/turns", handler.CreateTurn)
	api.POST("/projects", handler.CreateProject)
	api.PUT("/files", handler.UpdateFile)
	api.POST("/devserver/stop", handler.StopDevServer)
	api.GET("/export", handler.Export)
	api.GET("/logs/ws", handler.StreamLogs)

	return router
}

func requestLogger(logger *pterm.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request", logger.Args(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		))
	}
}

// Serve runs the router on addr until ctx ends, then shuts down gracefully.
func Serve(ctx context.Context, addr string, router http.Handler, logger *pterm.Logger) error {
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", logger.Args("addr", addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown failed: %w", err)
	}
	return nil
}
