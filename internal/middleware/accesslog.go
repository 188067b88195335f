// Package middleware holds huma middlewares shared by every operation.
package middleware

import (
	"net"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// AccessLog logs one line per request. The route template is logged instead
// of the raw path so identifiers of short links stay out of access logs.
func AccessLog(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	logger = logger.Named("http")

	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		route := ""
		if op := ctx.Operation(); op != nil {
			route = op.Path
		}

		status := ctx.Status()
		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("clientIp", ClientIP(ctx)),
		}

		if status >= 500 {
			logger.Warn("request failed", fields...)

			return
		}

		logger.Info("request", fields...)
	}
}

// ClientIP returns the originating client address, preferring proxy headers.
func ClientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}
