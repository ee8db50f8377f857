package server

import (
	"net/http"
	"strings"
	"time"

	"tourmarket-backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const actorKey = "actor"

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader("x-request-id"))
		if rid == "" {
			rid = "req_" + uuid.NewString()
		}
		c.Set("requestId", rid)
		c.Header("x-request-id", rid)
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("requestId", c.GetString("requestId")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			s.fail(c, http.StatusUnauthorized, "AUTH_MISSING_BEARER_TOKEN", "missing Bearer token", nil)
			c.Abort()
			return
		}
		actor, err := s.auth.Verify(token)
		if err != nil {
			s.fail(c, http.StatusUnauthorized, "AUTH_INVALID_OR_EXPIRED_TOKEN", "invalid or expired token", nil)
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).IsAdmin() {
			s.fail(c, http.StatusForbidden, "AUTH_ADMIN_REQUIRED", "admin privileges required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(domain.Actor); ok {
			return a
		}
	}
	return domain.Actor{}
}
