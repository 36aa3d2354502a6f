package app

import (
	"context"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hubooks/reading-service/internal/config"
	"github.com/hubooks/reading-service/internal/database"
	"github.com/hubooks/reading-service/internal/health"
	"github.com/hubooks/reading-service/internal/http/handler"
	"github.com/hubooks/reading-service/internal/http/middleware"
	"github.com/hubooks/reading-service/internal/http/router"
	"github.com/hubooks/reading-service/internal/observability"
	"github.com/hubooks/reading-service/internal/repository"
	"github.com/hubooks/reading-service/internal/service"
)

var ProviderSet = wire.NewSet(
	provideDB,
	provideRedisClient,
	repository.NewReaderRepository,
	repository.NewSessionRepository,
	provideNegativeLookupCache,
	provideSessionService,
	provideAuthService,
	service.NewReaderService,
	wire.Bind(new(service.SessionResolver), new(*service.SessionService)),
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.ReaderServiceInterface), new(*service.ReaderService)),
	middleware.NewIdentityGate,
	handler.NewAuthHandler,
	handler.NewReaderHandler,
	provideReadiness,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
	observability.InitRuntime,
	New,
)

func provideDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if database.MigrateOnStartup(cfg) {
		if err := database.Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// provideRedisClient returns nil when REDIS_ADDR is unset; every consumer
// falls back to an in-process implementation.
func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RedisEnabled() {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func provideNegativeLookupCache(client redis.UniversalClient) service.NegativeLookupCacheStore {
	if client == nil {
		return service.NewInMemoryNegativeLookupCacheStore()
	}
	return service.NewRedisNegativeLookupCacheStore(client, "reading:negative_lookup")
}

func provideSessionService(repo repository.SessionRepository, cache service.NegativeLookupCacheStore, cfg *config.Config) *service.SessionService {
	return service.NewSessionService(repo, cache, cfg.NegativeLookupCacheTTL)
}

func provideAuthService(readers repository.ReaderRepository, sessions *service.SessionService, cfg *config.Config) *service.AuthService {
	return service.NewAuthService(readers, sessions, cfg.LoginFailureDelay)
}

func provideReadiness(db *gorm.DB, client redis.UniversalClient) *health.ProbeRunner {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if client != nil {
		checkers = append(checkers, health.NewRedisChecker(client))
	}
	return health.NewProbeRunner(2*time.Second, time.Second, checkers...)
}

func failureMode(cfg *config.Config) middleware.FailureMode {
	if cfg.RateLimitFailOpen {
		return middleware.FailOpen
	}
	return middleware.FailClosed
}

func provideGlobalRateLimiter(cfg *config.Config, client redis.UniversalClient) router.GlobalRateLimiterFunc {
	if client == nil {
		return middleware.NewRateLimiter(cfg.APIRateLimitRPM, time.Minute).Middleware()
	}
	limiter := middleware.NewRedisFixedWindowLimiter(client, "reading:rl")
	return middleware.NewDistributedRateLimiter(limiter, cfg.APIRateLimitRPM, time.Minute, failureMode(cfg), "api").Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, client redis.UniversalClient) router.AuthRateLimiterFunc {
	if client == nil {
		return middleware.NewRateLimiter(cfg.AuthRateLimitRPM, time.Minute).Middleware()
	}
	limiter := middleware.NewRedisFixedWindowLimiter(client, "reading:rl")
	return middleware.NewDistributedRateLimiter(limiter, cfg.AuthRateLimitRPM, time.Minute, failureMode(cfg), "auth").Middleware()
}

func provideRouterDependencies(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	readerHandler *handler.ReaderHandler,
	gate *middleware.IdentityGate,
	readiness *health.ProbeRunner,
	globalLimiter router.GlobalRateLimiterFunc,
	authLimiter router.AuthRateLimiterFunc,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:        authHandler,
		ReaderHandler:      readerHandler,
		IdentityGate:       gate,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		CORSOriginSuffixes: cfg.CORSAllowedOriginSuffixes,
		AuthRateLimitRPM:   cfg.AuthRateLimitRPM,
		APIRateLimitRPM:    cfg.APIRateLimitRPM,
		GlobalRateLimiter:  globalLimiter,
		AuthRateLimiter:    authLimiter,
		Readiness:          readiness,
		EnableOTelHTTP:     cfg.OTELTracingEnabled || cfg.OTELMetricsEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
