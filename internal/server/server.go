package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is an interface for components that can report their health status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Engine *gin.Engine
	Addr   string

	// Both backing stores are checked on /health; the service is only healthy
	// when reviews and restaurants are both reachable.
	restaurantDB HealthChecker
	reviewDB     HealthChecker
}

func New(addr string, restaurantDB, reviewDB HealthChecker, mode string) *Server {
	// Set Gin mode based on configuration
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	s := &Server{
		Engine:       r,
		Addr:         addr,
		restaurantDB: restaurantDB,
		reviewDB:     reviewDB,
	}

	r.GET("/health", s.healthHandler)

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	stores := map[string]HealthChecker{
		"restaurant_db": s.restaurantDB,
		"review_db":     s.reviewDB,
	}

	status := gin.H{"status": "healthy"}
	healthy := true
	for name, store := range stores {
		if store == nil {
			continue
		}
		if err := store.Ping(ctx); err != nil {
			slog.Error("Health check failed: store unreachable", "store", name, "error", err)
			status[name] = "unreachable"
			healthy = false
		} else {
			status[name] = "connected"
		}
	}

	if !healthy {
		status["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("Starting HTTP Server...", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("Stopping HTTP Server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP Server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
