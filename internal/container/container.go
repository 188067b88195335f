// Package container wires the service from Options with samber/do.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/fuselink/internal/handlers"
	"github.com/serroba/fuselink/internal/health"
	"github.com/serroba/fuselink/internal/lifecycle"
	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/messaging"
	"github.com/serroba/fuselink/internal/middleware"
	"github.com/serroba/fuselink/internal/reaper"
	"github.com/serroba/fuselink/internal/store"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis Streams consumer group shared by consumer processes.
const ConsumerGroupName = "fuselink"

type Options struct {
	Port                int    `default:"8888"           help:"Port to listen on"                                              short:"p"`
	BaseURL             string `default:""               help:"Public base URL of short links (default http://localhost:PORT)" short:"b"`
	DatabaseURL         string `default:"memory://"      help:"Link store: postgres://, file:, libsql://, wss:// or memory://"  short:"d"`
	RedisAddr           string `default:"localhost:6379" help:"Redis server address, empty disables Redis"                     short:"r"`
	CacheTTLSeconds     int    `default:"3600"           help:"Upper bound on cache entry lifetime in seconds"`
	ReapIntervalSeconds int    `default:"60"             help:"Seconds between sweeps for expired links"`
	AllocationAttempts  int    `default:"64"             help:"Identifier draws before giving up on a collision"`
	LogFormat           string `default:"console"        help:"Log format: json or console"`
}

// PublicBaseURL returns the base URL short links are built from.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// RedisEnabled reports whether a Redis address was configured.
func (o *Options) RedisEnabled() bool {
	return o.RedisAddr != ""
}

// LoggerPackage provides the zap logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisConn owns the shared Redis client.
type RedisConn struct {
	redis.UniversalClient
}

// Shutdown closes the client.
func (c *RedisConn) Shutdown() error {
	return c.Close()
}

// RedisPackage provides the Redis client. It fails when Redis is disabled.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisConn, error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.RedisEnabled() {
			return nil, fmt.Errorf("redis is disabled")
		}

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		return &RedisConn{UniversalClient: client}, nil
	})
}

// StorePackage provides the durable link store selected by DatabaseURL.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (LinkStore, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return OpenStore(ctx, opts.DatabaseURL)
	})
}

// CachePackage provides the read-through cache: Redis when enabled, otherwise in-process.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (link.Cache, error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.RedisEnabled() {
			return store.NewMemoryCache(), nil
		}

		return store.NewRedisCache(do.MustInvoke[*RedisConn](i).UniversalClient), nil
	})
}

// PublisherGroupPackage provides the Redis Streams publisher.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		conn := do.MustInvoke[*RedisConn](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     conn.UniversalClient,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			messaging.NewLoggerAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ObserverPackage provides the lifecycle observer. Without Redis events are dropped.
func ObserverPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (link.Observer, error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.RedisEnabled() {
			return link.NopObserver{}, nil
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return lifecycle.NewPublisher(group.Publisher()), nil
	})
}

// LinkPackage provides the link service.
func LinkPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*link.Service, error) {
		opts := do.MustInvoke[*Options](i)
		repo := do.MustInvoke[LinkStore](i)

		eraser, err := link.NewEraser(repo)
		if err != nil {
			return nil, err
		}

		return link.NewService(
			repo,
			do.MustInvoke[link.Cache](i),
			link.NewGenerator(repo, link.EmojiSampler, opts.AllocationAttempts),
			eraser,
			do.MustInvoke[*zap.Logger](i),
			link.WithCacheTTL(time.Duration(opts.CacheTTLSeconds)*time.Second),
			link.WithObserver(do.MustInvoke[link.Observer](i)),
		), nil
	})
}

// ReaperPackage provides the expired-link reaper.
func ReaperPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*reaper.Reaper, error) {
		opts := do.MustInvoke[*Options](i)

		return reaper.New(
			do.MustInvoke[*link.Service](i),
			time.Duration(opts.ReapIntervalSeconds)*time.Second,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		baseURL := opts.PublicBaseURL()

		api := humachi.New(router, huma.DefaultConfig("Fuselink", "1.0.0"))
		api.UseMiddleware(middleware.AccessLog(logger))

		var cacheChecker health.Checker
		if opts.RedisEnabled() {
			cacheChecker = health.NewRedisChecker(do.MustInvoke[*RedisConn](i).UniversalClient)
		}

		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[LinkStore](i), cacheChecker))
		handlers.RegisterRoutes(api,
			handlers.NewLinkHandler(do.MustInvoke[*link.Service](i), baseURL, logger),
			handlers.NewImageHandler(baseURL, logger),
		)

		return api, nil
	})
}

// WorkerGroupPackage provides the lifecycle consumers and the reaper under one lifecycle.
func WorkerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.Group, error) {
		conn := do.MustInvoke[*RedisConn](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        conn.UniversalClient,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: ConsumerGroupName,
			},
			messaging.NewLoggerAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		group := messaging.NewGroup(subscriber, logger)
		group.Add(lifecycle.Consumers(subscriber, do.MustInvoke[link.Cache](i), logger)...)
		group.Add(do.MustInvoke[*reaper.Reaper](i))

		return group, nil
	})
}
