package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spigell/career-pilot/internal/assistant"
	"github.com/spigell/career-pilot/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxResumeSize = 10 << 20
	// maxSubmitBody leaves room for the query and the multipart framing.
	maxSubmitBody = maxResumeSize + 1<<20
)

// Server exposes assistant sessions over HTTP.
type Server struct {
	service *assistant.Service
	router  *gin.Engine
	logger  *zap.Logger
}

func New(service *assistant.Service, log *zap.Logger) *Server {
	r := gin.New()
	r.MaxMultipartMemory = maxResumeSize

	s := &Server{
		service: service,
		router:  r,
		logger:  logger.WithFields(log),
	}

	r.Use(gin.Recovery(), s.accessLog())
	s.setupRoutes()

	return s
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/v1/sessions")
	v1.POST("", s.handleCreate)
	v1.GET("/:id", s.handleGet)
	v1.DELETE("/:id", s.handleDelete)
	v1.POST("/:id/submit", s.handleSubmit)
	v1.POST("/:id/followup", s.handleFollowUp)
	v1.GET("/:id/export", s.handleExport)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("request served",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
