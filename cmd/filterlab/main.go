package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/DMarby/filterlab/internal/cache"
	"github.com/DMarby/filterlab/internal/cache/memory"
	"github.com/DMarby/filterlab/internal/cache/redis"
	"github.com/DMarby/filterlab/internal/cmd"
	"github.com/DMarby/filterlab/internal/health"
	"github.com/DMarby/filterlab/internal/hmac"
	"github.com/DMarby/filterlab/internal/image"
	"github.com/DMarby/filterlab/internal/image/filter"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/metrics"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/storage"
	fileStorage "github.com/DMarby/filterlab/internal/storage/file"
	"github.com/DMarby/filterlab/internal/storage/spaces"
	"github.com/DMarby/filterlab/internal/tracing"

	api "github.com/DMarby/filterlab/internal/imageapi"

	"github.com/jamiealquiza/envy"
	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8080", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Filters
	presetPath = flag.String("preset", "", "path to a TOML file overriding the default filter parameters")
	workers    = flag.Int("workers", 3, "worker queue concurrency")
	pipelines  = flag.Int("pipelines", 16, "amount of source images to keep decoded with their cached variants")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", "./images", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for S3 compatible servers such as minio")

	// Cache
	cacheBackend = flag.String("cache", "memory", "which cache backend to use for encoded sources and variants (memory, redis)")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "127.0.0.1:6379", "redis address")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long cached images are kept in redis, 0 keeps them until evicted")

	// HMAC
	hmacKey = flag.String("hmac-key", "", "hmac key to verify signed save requests with, saving is not authenticated if empty")

	// Healthcheck
	healthCheckImageID = flag.String("health-check-image-id", "", "image ID to request from the storage to check storage health, the storage is listed if empty")

	// Tracing
	tracingEnabled     = flag.Bool("tracing", false, "export traces over OTLP, configured with the OTEL_EXPORTER_OTLP_* environment variables")
	tracingSampleRatio = flag.Float64("tracing-sample-ratio", 0.1, "ratio of traces to sample")
)

func main() {
	// Load .env files, the environment takes precedence
	_ = godotenv.Load()

	// Parse environment variables
	envy.Parse("FILTERLAB")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	var tracer *tracing.Tracer
	if *tracingEnabled {
		var err error
		tracer, err = tracing.New(shutdownCtx, log, "filterlab", *tracingSampleRatio)
		if err != nil {
			log.Fatalf("error initializing tracing: %s", err)
		}
		defer tracer.Shutdown(context.Background())
	}

	// Load the filter parameters
	defaults := params.Defaults()
	if *presetPath != "" {
		var err error
		defaults, err = params.LoadFile(*presetPath, defaults)
		if err != nil {
			log.Fatalf("error loading preset: %s", err)
		}
	}
	store := params.NewStore(defaults)

	// Initialize the storage, cache
	storage, cache, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer cache.Shutdown()

	// Initialize the image processor
	imageProcessorCtx, imageProcessorCancel := context.WithCancel(context.Background())
	defer imageProcessorCancel()

	library := transformLibrary()
	registry := pipeline.NewRegistry(
		*pipelines,
		pipeline.WithLibrary(library),
		pipeline.WithTracer(tracer),
		pipeline.WithLogger(log.Named("pipeline")),
	)
	imageProcessor := filter.New(imageProcessorCtx, log, tracer, *workers, image.NewCache(tracer, cache, storage), cache, registry)
	defer imageProcessor.Shutdown()

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:        checkerCtx,
		Storage:    storage,
		ImageID:    *healthCheckImageID,
		Cache:      cache,
		Transforms: library,
		Params:     store,
		Log:        log,
	}
	go checker.Run()

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, checker, *metricsListen)

	// Start and listen on http
	api := &api.API{
		ImageProcessor: imageProcessor,
		Storage:        storage,
		Params:         store,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		HandlerTimeout: cmd.HandlerTimeout,
	}
	if *hmacKey != "" {
		api.HMAC = &hmac.HMAC{Key: []byte(*hmacKey)}
	}
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Infof("shutting down the http server: %s", err)
			shutdown()
		}
	}()

	log.Infof("http server listening on %s", *listen)

	// Wait for shutdown or error
	err = cmd.WaitForInterrupt(shutdownCtx)
	log.Infof("shutting down: %s", err)

	// Shut down http server
	cmd.ShutdownServer(log, server)
}

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (storage storage.Provider, cache cache.Provider[[]byte], err error) {
	// Storage
	switch *storageBackend {
	case "file":
		storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		storage, err = spaces.New(tracer, *storageSpacesSpace, *storageSpacesEndpoint, *storageSpacesAccessKey, *storageSpacesSecretKey, *storageSpacesForcePathStyle)
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Cache, shared by the encoded sources and the rendered variants
	switch *cacheBackend {
	case "memory":
		cache = memory.New[[]byte]()
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, redis.WithTTL(*cacheRedisTTL))
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}
