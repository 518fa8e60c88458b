package ui

import (
	"time"

	"datalens/internal/errors"

	"github.com/gin-gonic/gin"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(s.recoverPanic))
	s.router.Use(s.requestLogger())
}

// recoverPanic answers a panicking handler with the JSON error envelope
func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("[HTTP] panic in %s %s: %v", c.Request.Method, c.FullPath(), recovered)
	s.respondError(c, errors.InternalError("internal server error"))
	c.Abort()
}

// requestLogger logs one line per request; event streams log on close
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[HTTP] %s %s -> %d in %s", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
