package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/andripurnama/mobile-auth-api/internal/handlers"
	"github.com/andripurnama/mobile-auth-api/internal/logger"
	"github.com/andripurnama/mobile-auth-api/internal/middlewares"
	"github.com/andripurnama/mobile-auth-api/internal/repositories"
	"github.com/andripurnama/mobile-auth-api/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// hashedEndpoints is the endpoint list shown on the banner and on
// unmatched routes in hashed mode.
var hashedEndpoints = []string{
	"GET /",
	"GET /api",
	"POST /api/register",
	"POST /api/login",
	"GET /api/users",
	"GET /api/check/:username",
	"GET /api/health",
}

// deviceEndpoints is the endpoint list shown on unmatched routes in
// device mode.
var deviceEndpoints = []string{
	"GET /?action=test",
	"POST /?action=register",
	"POST /?action=login",
	"GET /?action=all",
	"GET /?action=androidid&username=",
}

// @title mobile-auth-api
// @version 1.0.0
// @description Username/password authentication backend for the mobile app, with an optional device-bound variant
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, appMode, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword, countCacheTTL,
		kafkaBrokers, kafkaTopic,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, appMode, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword, countCacheTTL,
		kafkaBrokers, kafkaTopic,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, database, Redis, and Kafka configuration.
func parseConfig(path string) (
	appHost, appPort, appMode, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	countCacheTTL int,
	kafkaBrokers, kafkaTopic string,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	appMode = getEnv("APP_MODE", string(services.ModeHashed))
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	if appMode != string(services.ModeHashed) && appMode != string(services.ModeDevice) {
		err = fmt.Errorf("unknown APP_MODE %q", appMode)
		return
	}

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "database")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config; empty REDIS_HOST disables the count cache
	redisHost = getEnv("REDIS_HOST", "")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")
	if countCacheTTL, err = strconv.Atoi(getEnv("USER_COUNT_CACHE_TTL_SECOND", "30")); err != nil {
		return
	}

	// Kafka config; empty KAFKA_BROKERS disables event publishing
	kafkaBrokers = getEnv("KAFKA_BROKERS", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "account-events")

	return
}

// retrySchemaInit keeps retrying the schema bootstrap until it succeeds
// or the context is cancelled.
func retrySchemaInit(ctx context.Context, db *sqlx.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repositories.InitSchema(ctx, db); err == nil {
				logger.Log.Info("Connected to PostgreSQL, schema ready")
				return
			}
		}
	}
}

// run initializes the logger, database, optional Redis and Kafka clients,
// and the HTTP server. It sets up routes, applies middleware, and handles
// graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, appMode, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	countCacheTTL int,
	kafkaBrokers, kafkaTopic string,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Shutdown-scoped context; background retries hang off it so they
	// stop with the server instead of living until process exit.
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Open PostgreSQL. A down store must not crash the process: each
	// request fails individually until connectivity recovers, and the
	// schema check keeps retrying until it has run once.
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infof("Connecting to PostgreSQL: %s", dsn)

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		logger.Log.Error("PostgreSQL DSN error:", err)
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)

	if err := repositories.InitSchema(ctx, db); err != nil {
		logger.Log.Errorw("PostgreSQL unreachable at startup, continuing", "error", err)
		go retrySchemaInit(ctxShutdown, db)
	} else {
		logger.Log.Info("Connected to PostgreSQL, schema ready")
	}

	// Optional Redis count cache
	var countCache services.CountCache
	if redisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", redisHost, redisPort),
			Password: redisPassword,
			DB:       redisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Errorw("Redis unreachable, count cache disabled", "error", err)
			rdb.Close()
		} else {
			defer rdb.Close()
			countCache = repositories.NewUserCountCacheRepository(rdb, time.Duration(countCacheTTL)*time.Second)
			logger.Log.Info("Redis count cache enabled")
		}
	}

	// Optional Kafka event publisher
	var kafkaWriter services.KafkaWriter
	if kafkaBrokers != "" {
		w := &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(kafkaBrokers, ",")...),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer w.Close()
		kafkaWriter = w
		logger.Log.Infof("Kafka event publishing enabled on topic %s", kafkaTopic)
	}

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)

	// Initialize service
	svc := services.NewAccountService(services.Mode(appMode), userReadRepo, userWriteRepo, countCache, kafkaWriter)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	switch svc.Mode() {
	case services.ModeDevice:
		actionsHandler := handlers.NewActionsHandler(svc)
		r.Get("/", actionsHandler)
		r.Post("/", actionsHandler)
		r.NotFound(handlers.NewNotFoundHandler(deviceEndpoints))
		r.MethodNotAllowed(handlers.NewNotFoundHandler(deviceEndpoints))
	default:
		r.Get("/", handlers.NewRootHandler(svc, hashedEndpoints))
		r.Get("/api", handlers.NewAPIInfoHandler(svc))
		r.Post("/api/register", handlers.NewRegisterHandler(svc))
		r.Post("/api/login", handlers.NewLoginHandler(svc))
		r.Get("/api/users", handlers.NewListUsersHandler(svc))
		r.Get("/api/check/{username}", handlers.NewCheckUsernameHandler(svc))
		r.Get("/api/health", handlers.NewHealthHandler(svc))
		r.NotFound(handlers.NewNotFoundHandler(hashedEndpoints))
		r.MethodNotAllowed(handlers.NewNotFoundHandler(hashedEndpoints))
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s in %s mode", appHost, appPort, appMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
