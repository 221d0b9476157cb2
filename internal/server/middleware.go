package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/frontdesk/internal/observability/logger"
	"go.uber.org/zap"
)

// OperatorRateLimit throttles each operator. Limiter failures fail closed.
func (s *Server) OperatorRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		actor, ok := actorFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		res, err := s.limiter.Allow(ctx, actor.ID)
		if err != nil {
			logger.FromContext(ctx).Warn("operator rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			endpoint := normalizeRateLimitEndpoint(c)
			logger.FromContext(ctx).Warn("operator rate limit exceeded",
				zap.String("endpoint", endpoint),
				zap.String("operator_id", actor.ID),
			)
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)

			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
