package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"

	"github.com/cinevault/api/internal/auth"
	"github.com/cinevault/api/internal/catalog"
	"github.com/cinevault/api/internal/config"
	"github.com/cinevault/api/internal/database"
	"github.com/cinevault/api/internal/email"
	httpServer "github.com/cinevault/api/internal/http"
	"github.com/cinevault/api/internal/logging"
	"github.com/cinevault/api/internal/ratelimit"
	"github.com/cinevault/api/internal/user"
)

// @title           CineVault API
// @version         1.0
// @description     A movie catalog API with bearer-token authentication and email verification.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := user.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)

	var codeRepo auth.CodeRepository
	if cfg.Auth.OTPStore == config.OTPStoreRedis {
		codeRepo = auth.NewRedisCodeRepository(redisClient, cfg.Auth.OTPTTL)
	} else {
		codeRepo = auth.NewBunCodeRepository(db, cfg.Auth.OTPTTL)
	}

	codeManager := auth.NewCodeManager(codeRepo, cfg.Auth.OTPLength, cfg.Auth.BcryptCost)

	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	rateLimiter := ratelimit.NewLimiter(redisClient)

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
	)

	authService := auth.NewService(
		userRepo,
		codeManager,
		tokenService,
		emailService,
		logger,
		cfg.Auth.SessionDuration,
		cfg.Auth.BcryptCost,
	)

	authHandler := auth.NewHandler(authService, rateLimiter, logger)
	authMiddleware := auth.NewMiddleware(tokenService, userRepo)
	catalogHandler := catalog.NewHandler(catalogRepo, logger)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, catalogHandler, logger)

	// Expired SQL rows are already invisible to validation; the sweep just
	// keeps the table from growing.
	scheduler := cron.New()
	if cfg.Auth.OTPStore == config.OTPStorePostgres {
		_, err := scheduler.AddFunc("@every 10m", func() {
			if err := codeRepo.DeleteExpired(context.Background()); err != nil {
				logger.Warn("failed to sweep expired verification codes", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule code sweep: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initTokenService builds the configured session credential implementation
func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenProvider == config.TokenProviderJWT {
		return auth.NewJWTService(cfg.JWTSecret)
	}
	return auth.NewPasetoService(cfg.PasetoKey)
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
