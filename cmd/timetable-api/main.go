package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-scheduler/api/swagger"
	"github.com/noah-isme/timetable-scheduler/internal/handler"
	"github.com/noah-isme/timetable-scheduler/internal/loader"
	internalmiddleware "github.com/noah-isme/timetable-scheduler/internal/middleware"
	"github.com/noah-isme/timetable-scheduler/internal/models"
	"github.com/noah-isme/timetable-scheduler/internal/repository"
	"github.com/noah-isme/timetable-scheduler/internal/service"
	"github.com/noah-isme/timetable-scheduler/pkg/cache"
	"github.com/noah-isme/timetable-scheduler/pkg/config"
	"github.com/noah-isme/timetable-scheduler/pkg/database"
	"github.com/noah-isme/timetable-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-scheduler/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-scheduler/pkg/storage"
)

const housekeepingInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sqlx.DB
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect postgres", "error", err)
		}
		defer db.Close() //nolint:errcheck
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Sugar().Fatalw("failed to prepare schema", "error", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, statistics cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, cfg.Redis.Namespace, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Redis.StatsTTL, logr)
	if err := cacheSvc.InvalidatePattern(ctx, service.StatsCachePattern); err != nil {
		logr.Sugar().Warnw("failed to purge stale statistics", "error", err)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL)
	exportSvc := service.NewExportService(exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.Retention,
	}, logr)

	catalogs, err := loadCatalog(cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to load catalog", "error", err)
	}

	validate := validator.New()
	svcCfg := service.TimetableServiceConfig{
		Defaults: service.GenerateOptions{
			MaxAttempts: cfg.Scheduler.MaxAttempts,
			Randomize:   cfg.Scheduler.Randomize,
			Workers:     cfg.Scheduler.Workers,
			MaxNodes:    cfg.Scheduler.MaxNodes,
			TimeBudget:  cfg.Scheduler.TimeBudget,
		},
		TimetableTTL: cfg.Scheduler.TimetableTTL,
		StatsTTL:     cfg.Redis.StatsTTL,
		TermStart:    cfg.Scheduler.TermStart,
	}
	var timetableSvc *service.TimetableService
	if db != nil {
		timetableSvc = service.NewTimetableService(catalogs, repository.NewTimetableRepository(db), db, cacheSvc, exportSvc, metricsSvc, validate, logr, svcCfg)
	} else {
		timetableSvc = service.NewTimetableService(catalogs, nil, nil, cacheSvc, exportSvc, metricsSvc, validate, logr, svcCfg)
	}

	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	}, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	checks := map[string]handler.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var guards []gin.HandlerFunc
	if cfg.JWT.Enabled {
		guards = append(guards,
			internalmiddleware.JWT(tokenSvc),
			internalmiddleware.RBAC(models.RoleAdmin, models.RolePlanner),
		)
	} else {
		logr.Warn("authentication disabled, mutating routes are open")
	}
	guards = append(guards, internalmiddleware.Audit(logr))

	api := r.Group(cfg.APIPrefix)
	handler.NewTimetableHandler(timetableSvc, exportSvc).RegisterRoutes(api, guards...)

	go runHousekeeping(ctx, timetableSvc, exportSvc, cfg.Exports.Retention, logr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "persistence", db != nil, "cache", cacheSvc.Enabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Info("server stopped")
}

// loadCatalog reads the startup catalog. The server also starts empty and waits for PUT /catalog.
func loadCatalog(cfg *config.Config) (*service.CatalogStore, error) {
	opts := loader.Options{TermStart: cfg.Scheduler.TermStart}
	var (
		result *loader.Result
		err    error
	)
	switch {
	case cfg.Catalog.File != "":
		result, err = loader.LoadJSONFile(cfg.Catalog.File, opts)
	case cfg.Catalog.CSVDir != "":
		result, err = loader.LoadCSVDir(cfg.Catalog.CSVDir, opts)
	default:
		return service.NewCatalogStore(nil, nil), nil
	}
	if err != nil {
		return nil, err
	}
	return service.NewCatalogStore(result.Catalog, result.Fixed), nil
}

func runHousekeeping(ctx context.Context, timetables *service.TimetableService, exports *service.ExportService, retention time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			timetables.SweepExpired()
			if _, err := exports.Cleanup(retention); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}
