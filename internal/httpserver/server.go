package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server setup for the storefront API.
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
}

// New builds a Server with the storefront routes wired.
func New(addr string, logger *logrus.Logger, deps Deps) *Server {
	return NewWithHandler(addr, logger, buildRouter(logger, deps))
}

// NewWithHandler wraps an already-built handler with the shared server
// timeouts and shutdown plumbing.
func NewWithHandler(addr string, logger *logrus.Logger, handler http.Handler) *Server {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
