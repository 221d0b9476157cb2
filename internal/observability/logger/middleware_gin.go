package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-Id"

// quietRoutes are logged at debug unless they fail. The progress endpoint is
// polled every second or so while an audit runs.
var quietRoutes = map[string]bool{
	"/health":                 true,
	"/metrics":                true,
	"/admin/night-audits/:id": true,
}

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps a handler error to the error type and code
	// returned to the client.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware assigns the request id and writes one access log line per
// request. Handlers that attach an audit run to the request context get it
// logged as well.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c)
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			if cfg.ErrorClassifier != nil {
				errType, errCode := cfg.ErrorClassifier(lastErr.Err)
				fields = append(fields,
					zap.String("error_type", errType),
					zap.String("error_code", errCode),
				)
			}
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		log := FromContext(c.Request.Context())
		if ce := log.Check(accessLevel(route, status), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestIDFor(c *gin.Context) string {
	// Header lookups are canonicalized, so this also matches X-Request-ID.
	if id := strings.TrimSpace(c.GetHeader(requestIDHeader)); id != "" {
		return id
	}
	return uuid.NewString()
}

func accessLevel(route string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case quietRoutes[route] && status < http.StatusBadRequest:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
