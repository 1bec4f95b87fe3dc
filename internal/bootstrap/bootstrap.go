package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/oguzk/studentdesk/internal/app/controllers"
	appMigrations "github.com/oguzk/studentdesk/internal/app/migrations"
	appRepos "github.com/oguzk/studentdesk/internal/app/repositories"
	appRoutes "github.com/oguzk/studentdesk/internal/app/routes"
	appServices "github.com/oguzk/studentdesk/internal/app/services"
	"github.com/oguzk/studentdesk/internal/config"
	"github.com/oguzk/studentdesk/internal/db"
	appMiddleware "github.com/oguzk/studentdesk/internal/middleware"
	pkgAuth "github.com/oguzk/studentdesk/internal/pkg/auth"
	"github.com/oguzk/studentdesk/internal/pkg/helpers"
	"github.com/oguzk/studentdesk/internal/pkg/logger"
	"github.com/oguzk/studentdesk/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store             appRepos.Store
	AuthService       *appServices.AuthService
	StudentService    *appServices.StudentService
	AuthController    *appControllers.AuthController
	StudentController *appControllers.StudentController
	AuthMiddleware    *appMiddleware.AuthMiddleware
	JWTService        *pkgAuth.JWTService
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore builds the persistence layer named by the configuration and
// wraps it with the cache decorator when enabled. The returned cleanup
// function releases whatever resources the chosen backend holds.
func SetupStore(cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, func(), error) {
	var store appRepos.Store
	cleanup := func() {}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		lgr.Info().Msg("Using in-memory storage backend")
		store = appRepos.NewMemoryStore()

	case config.BackendBolt:
		lgr.Info().Str("path", cfg.Storage.BoltPath).Msg("Using bolt storage backend")
		boltStore, err := appRepos.NewBoltStore(cfg.Storage.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		store = boltStore
		cleanup = func() {
			if err := boltStore.Close(); err != nil {
				lgr.Error().Err(err).Msg("Failed to close bolt store")
			}
		}

	case config.BackendPostgres:
		lgr.Info().Msg("Using postgres storage backend")
		database, err := setupPostgres(cfg, lgr)
		if err != nil {
			return nil, nil, err
		}
		store = appRepos.NewPostgresStore(database)
		cleanup = database.Close

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}

	if cfg.Cache.Enabled {
		ttl := helpers.ParseDuration(cfg.Cache.TTL, appRepos.DefaultCacheTTL)
		lgr.Info().Dur("ttl", ttl).Msg("Read cache enabled")
		store = appRepos.NewCachedStore(store, ttl)
	}

	if err := seed.CreateDefaultData(context.Background(), store, cfg, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return store, cleanup, nil
}

// setupPostgres establishes the database connection and runs migrations.
func setupPostgres(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Pool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return database, nil
}

// BuildDependencies initializes application services, controllers and middleware.
func BuildDependencies(cfg *config.Config, store appRepos.Store, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Store: store, Logger: lgr}

	tokenExp := helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: tokenExp,
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(store, deps.JWTService, lgr)
	deps.StudentService = appServices.NewStudentService(store, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	cookieSecure := strings.ToLower(cfg.Server.Mode) == "production"
	deps.AuthController = appControllers.NewAuthController(
		deps.AuthService,
		int(tokenExp.Seconds()),
		cookieSecure,
		lgr,
	)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(gin.Recovery())

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.StudentController,
		deps.AuthMiddleware,
	)

	return router
}
