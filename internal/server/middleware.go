package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edustack/campus/internal/requestctx"
)

// RequestContextMiddleware stamps request identity and transport metadata
// into the context. Authentication itself happens upstream; the trusted
// identity headers are set by the auth proxy terminating the session.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		ctx = requestctx.WithIPAddress(ctx, c.ClientIP())
		ctx = requestctx.WithUserAgent(ctx, c.Request.UserAgent())

		if userID, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader("X-User-Id")), 10, 64); err == nil && userID > 0 {
			ctx = requestctx.WithActor(ctx, requestctx.Actor{
				UserID:   userID,
				UserName: strings.TrimSpace(c.GetHeader("X-User-Name")),
				UserRole: strings.TrimSpace(c.GetHeader("X-User-Role")),
			})
		}

		c.Header("X-Request-Id", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func LoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestctx.RequestIDFromContext(c.Request.Context())),
		}
		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// actor returns the authenticated user or aborts with 401.
func (s *Server) actor(c *gin.Context) (requestctx.Actor, bool) {
	actor, ok := requestctx.ActorFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return requestctx.Actor{}, false
	}
	return actor, true
}
