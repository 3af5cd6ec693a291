package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carboni123/nanobanana/internal/config"
	"github.com/carboni123/nanobanana/internal/generate"
	"github.com/carboni123/nanobanana/internal/handler"
	"github.com/carboni123/nanobanana/internal/handler/middleware"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/service"
	"github.com/carboni123/nanobanana/internal/storage/postgres"
	"github.com/carboni123/nanobanana/internal/storage/redis"
	"github.com/carboni123/nanobanana/internal/worker"
	"github.com/carboni123/nanobanana/pkg/logger"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	startedAt := time.Now().UTC()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	userRepo := postgres.NewUserRepository(dbPool, appLogger)
	apiKeyRepo := postgres.NewAPIKeyRepository(dbPool, appLogger)
	usageRepo := postgres.NewUsageRepository(dbPool, appLogger)

	authService := service.NewAuthService(userRepo, &cfg.JWT, appLogger)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, appLogger)
	usageService := service.NewUsageService(usageRepo, appLogger)
	quotaService := service.NewQuotaService(usageRepo, appLogger)

	provider := generate.NewGeminiProvider(&cfg.Generation, appLogger)

	var uploader generate.Uploader
	if cfg.R2.Enabled() {
		uploader = generate.NewR2Uploader(&cfg.R2, appLogger)
		sugarLogger.Infof("R2 uploads enabled, bucket: %s", cfg.R2.Bucket)
	} else {
		sugarLogger.Info("R2 not configured, generated images will be returned inline")
	}

	generateService := service.NewGenerateService(provider, uploader, quotaService, int64(cfg.Generation.DailyLimit), appLogger)

	healthHandler := handler.NewHealthHandler(dbPool, redisClient, startedAt, appLogger)
	authHandler := handler.NewAuthHandler(authService, appLogger)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService, appLogger)
	usageHandler := handler.NewUsageHandler(usageService, appLogger)
	generateHandler := handler.NewGenerateHandler(generateService, appLogger)

	authMiddleware := middleware.AuthMiddleware(authService, appLogger)
	apiKeyAuthMiddleware := middleware.APIKeyAuthMiddleware(apiKeyRepo, appLogger)
	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(errorMiddleware)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := router.Group("/v1/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)

		authRoutes.GET("/me", authMiddleware, authHandler.Me)
		authRoutes.POST("/change-password", authMiddleware, authHandler.ChangePassword)
	}

	keyRoutes := router.Group("/v1/keys")
	keyRoutes.Use(authMiddleware)
	{
		keyRoutes.POST("", apiKeyHandler.Create)
		keyRoutes.GET("", apiKeyHandler.List)
		keyRoutes.DELETE("/:id", apiKeyHandler.Revoke)
	}

	usageRoutes := router.Group("/v1/usage")
	usageRoutes.Use(authMiddleware)
	{
		usageRoutes.GET("/summary", usageHandler.Summary)
		usageRoutes.GET("/daily", usageHandler.Daily)
		usageRoutes.GET("/key/:id", usageHandler.KeyUsage)
	}

	router.POST("/v1/generate", apiKeyAuthMiddleware, generateHandler.Generate)

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	g.Go(func() error {
		if err := worker.RunWorkers(groupCtx, cfg, apiKeyRepo, appLogger); err != nil {
			sugarLogger.Errorf("Asynq worker failed: %v", err)
			return fmt.Errorf("asynq worker error: %w", err)
		}
		sugarLogger.Info("Asynq workers finished gracefully.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else if errors.Is(waitErr, http.ErrServerClosed) {
			sugarLogger.Info("Shutdown reason: HTTP server closed normally.")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
