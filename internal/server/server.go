// Package server exposes the engine entry points over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/prepday/internal/daily"
	"github.com/abhisek/prepday/internal/logger"
)

// Server serves the prepday API.
type Server struct {
	svc    *daily.Service
	log    *logger.Logger
	router *gin.Engine
}

// New builds a Server and its routes.
func New(svc *daily.Service, log *logger.Logger) *Server {
	s := &Server{svc: svc, log: logger.OrNop(log)}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/catalog", listCatalog(s.svc))

	users := v1.Group("/users/:user")
	users.GET("/today", getToday(s.svc))
	users.POST("/transition", postTransition(s.svc))
	users.POST("/generate", postGenerate(s.svc))
	users.POST("/assignments/:module/toggle", postToggle(s.svc))
	users.GET("/stats", getStats(s.svc))
	v1.DELETE("/users/:user", deleteUser(s.svc))
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
