// Package api serves exports over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/sonarissues/internal/contract"
)

// shutdownTimeout bounds how long in-flight requests may finish after shutdown starts.
const shutdownTimeout = 10 * time.Second

// SetupRoutes sets up the API routes.
func SetupRoutes(handler *Handler, accessLog bool) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	if accessLog {
		router.Use(gin.Logger())
	}

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/issues", handler.GetIssues)
		v1.GET("/history", handler.GetHistory)
	}

	return router
}

// Serve runs the HTTP API on cfg.ServeAddr until ctx is canceled.
func Serve(ctx context.Context, cfg *contract.Config, source contract.IssueSource, mgr contract.HistoryManager, accessLog bool) error {
	gin.SetMode(gin.ReleaseMode)
	router := SetupRoutes(NewHandler(cfg, source, mgr), accessLog)

	srv := &http.Server{
		Addr:              cfg.ServeAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		_, _ = fmt.Fprintf(os.Stderr, "🌐 Serving exports on %s\n", cfg.ServeAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}
