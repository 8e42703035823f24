package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	rediscache "github.com/finacore/bank-account-service/internal/adapters/cache/redis"
	"github.com/finacore/bank-account-service/internal/adapters/database/pgsql"
	redisevents "github.com/finacore/bank-account-service/internal/adapters/events/redis"
	portssvc "github.com/finacore/bank-account-service/internal/core/ports/services"
	"github.com/finacore/bank-account-service/internal/core/services"
	"github.com/finacore/bank-account-service/internal/handlers"
	"github.com/finacore/bank-account-service/internal/middleware"
	"github.com/finacore/bank-account-service/pkg/cache"
	"github.com/finacore/bank-account-service/pkg/config"
	"github.com/finacore/bank-account-service/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis backs both the read-through cache and the event feed.
	redisClient, err := cache.NewRedisClient(context.Background(), cfg.RedisAddr)
	if err != nil {
		logger.Error("Failed to initialize redis client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.Error("Error closing redis client", slog.String("error", cerr.Error()))
		}
	}()
	logger.Info("Redis connection established.")

	accountRepo := pgsql.NewAccountRepository(dbPool)
	historyRepo := pgsql.NewHistoryRepository(dbPool)
	accountCache := rediscache.NewAccountCache(redisClient)
	publisher := redisevents.NewPublisher(redisClient, cfg.EventChannelPrefix)

	serviceContainer := &portssvc.ServiceContainer{
		Account: services.NewAccountService(accountRepo, historyRepo, accountCache, publisher),
		Query:   services.NewAccountQueryService(accountRepo, accountCache, cfg.CacheTTL),
		History: services.NewHistoryService(historyRepo),
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(limitermem.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations using a temporary database/sql
// connection over the pgx stdlib driver.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
