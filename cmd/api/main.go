package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/config"
	"import-wizard-api/internal/database"
	"import-wizard-api/internal/job"
	"import-wizard-api/internal/metrics"
	"import-wizard-api/internal/repository"
	"import-wizard-api/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Import Wizard API",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("crm_api_url", cfg.Salesmap.BaseURL),
	)

	// Initialize database (실패해도 앱은 시작됨 - 업로드/매핑 흐름은 DB가 없어도 된다)
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Warn("Failed to connect to database on startup, will retry in background",
			zap.Error(err))
		database.NewAsync(cfg.Database, 5*time.Second, logger)
	} else {
		database.SetDB(db)
		logger.Info("Database connected successfully")
	}

	// Initialize Redis (세션 저장소라 실패하면 기동 중단)
	if err := database.InitRedis(cfg.Redis, logger); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Initialize metrics
	m := metrics.NewWithLogger(logger)

	// Initialize S3 client
	var s3Client client.S3ClientInterface
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		s3, err := client.NewS3Client(&cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, exports stay local only", zap.Error(err))
		} else {
			s3Client = s3
			logger.Info("S3 client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Info("S3 not configured, exports stay local only")
	}

	// External clients
	crmClient := client.NewSalesmapClient(cfg.Salesmap.BaseURL, cfg.Salesmap.Timeout, logger, m)
	llmClient := client.NewOpenAIClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model,
		cfg.OpenAI.Temperature, cfg.OpenAI.Timeout, logger, m)

	// Background jobs (DB가 나중에 연결될 수 있어 실행 시점에 확인)
	cronRunner := cron.New()
	_, err = cronRunner.AddFunc("@hourly", func() {
		currentDB := database.GetDB()
		if currentDB == nil {
			return
		}
		cleanup := job.NewCleanupJob(
			repository.NewExportRecordRepository(currentDB),
			s3Client,
			cfg.Export.Dir,
			logger,
		)
		cleanup.Run()
	})
	if err != nil {
		logger.Warn("Failed to schedule export cleanup job", zap.Error(err))
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	// Business metrics collector
	if currentDB := database.GetDB(); currentDB != nil {
		database.RegisterMetricsCallbacks(currentDB, m)
		collector := metrics.NewBusinessMetricsCollector(currentDB, m, logger)
		collector.Start()
		defer collector.Stop()
		statsDone := database.StartDBStatsCollector(currentDB, m)
		defer close(statsDone)
	}

	// Setup router
	r := router.Setup(router.Deps{
		Config:  cfg,
		DB:      database.GetDB(),
		Redis:   database.GetRedis(),
		Metrics: m,
		Logger:  logger,
		CRM:     crmClient,
		LLM:     llmClient,
		S3:      s3Client,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Import Wizard API started successfully",
			zap.String("address", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
