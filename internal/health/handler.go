package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"

	healthy   = "healthy"
	unhealthy = "unhealthy"
)

// checkTimeout bounds each dependency ping.
const checkTimeout = 2 * time.Second

// Checker defines the interface for checking dependency health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping calls f.
func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts a redis client to the Checker interface.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler reports the health of the link store and the cache.
// The store is required; a failing cache only degrades the service because
// reads fall back to the store.
type Handler struct {
	store Checker
	cache Checker
}

// NewHandler creates a health handler. cache may be nil when no cache is configured.
func NewHandler(store, cache Checker) *Handler {
	return &Handler{store: store, cache: cache}
}

// Response is the response for the health check endpoint.
type Response struct {
	Status int
	Body   struct {
		Status string `enum:"ok,degraded,down" json:"status"`
		Store  string `json:"store"`
		Cache  string `json:"cache,omitempty"`
	}
}

// Check performs a health check of the service and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{Status: http.StatusOK}
	resp.Body.Status = StatusOK
	resp.Body.Store = probe(ctx, h.store)

	if h.cache != nil {
		resp.Body.Cache = probe(ctx, h.cache)
		if resp.Body.Cache == unhealthy {
			resp.Body.Status = StatusDegraded
		}
	}

	if resp.Body.Store == unhealthy {
		resp.Status = http.StatusServiceUnavailable
		resp.Body.Status = StatusDown
	}

	return resp, nil
}

func probe(ctx context.Context, c Checker) string {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return unhealthy
	}

	return healthy
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, h.Check)
}
