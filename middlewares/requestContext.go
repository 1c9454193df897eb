package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
	"github.com/sirupsen/logrus"
)

// RequestContextMiddleware attaches a correlation id to every request,
// taking the caller's x-correlation-id header when present and minting one
// otherwise. The id is echoed back on the response. Identity headers set by
// an upstream gateway (x-user-id, x-username) are carried into the context
// for logging.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		if raw := c.GetHeader("x-user-id"); raw != "" {
			if userId, err := strconv.Atoi(raw); err == nil {
				ctx = utils.SetUserIdInContext(ctx, userId)
			}
		}
		if username := c.GetHeader("x-username"); username != "" {
			ctx = utils.SetUsernameInContext(ctx, username)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("x-correlation-id", cid)
		c.Next()
	}
}

// RequestLogger logs one structured line per request after it completes.
func RequestLogger() gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		fields := logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.FullPath(),
			"status":         c.Writer.Status(),
			"duration_ms":    time.Since(start).Milliseconds(),
			"correlation_id": cid,
		}
		// Identity fields appear when an upstream gateway put them in context.
		if userId, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
			fields["user_id"] = userId
		}
		if username, ok := utils.GetUsernameFromContext(c.Request.Context()); ok {
			fields["username"] = username
		}
		logger.WithFields(fields).Info("request completed")
	}
}
