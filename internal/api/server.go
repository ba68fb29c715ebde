package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feed_ingestor/internal/domain"
	"feed_ingestor/internal/runlock"
)

// Trigger starts runs and reports on them.
type Trigger interface {
	Start(ctx context.Context, done func(*domain.RunSummary, error)) error
	Running() bool
	Last() *runlock.LastRun
}

type Server struct {
	trigger Trigger
	baseCtx context.Context
	logger  *slog.Logger
	engine  *gin.Engine
}

// NewServer builds the router. Runs started over HTTP inherit baseCtx, not the request context.
func NewServer(baseCtx context.Context, trigger Trigger, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		trigger: trigger,
		baseCtx: baseCtx,
		logger:  logger.With("component", "api"),
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/health", s.health)
	s.engine.POST("/run", s.startRun)
	s.engine.GET("/runs/last", s.lastRun)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"running": s.trigger.Running(),
	})
}

func (s *Server) startRun(c *gin.Context) {
	err := s.trigger.Start(s.baseCtx, func(summary *domain.RunSummary, err error) {
		if err != nil {
			s.logger.Error("triggered run failed", "error", err)
		}
	})
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		s.logger.Error("start run", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not start run"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	}
}

func (s *Server) lastRun(c *gin.Context) {
	last := s.trigger.Last()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has finished yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
