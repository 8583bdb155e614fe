package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dawahealth/adherence-backend/internal/adherence"
	"github.com/dawahealth/adherence-backend/internal/azure"
	"github.com/dawahealth/adherence-backend/internal/config"
	"github.com/dawahealth/adherence-backend/internal/handler"
	"github.com/dawahealth/adherence-backend/internal/pdf"
	"github.com/dawahealth/adherence-backend/internal/repository"
	"github.com/dawahealth/adherence-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	var logger *zap.Logger
	if cfg.Server.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database connection pool with pgx
	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Successfully connected to database")

	// Initialize the adherence engine from configured defaults
	engineConfig := adherence.Config{
		OnTimeWindowMinutes:       cfg.Adherence.OnTimeWindowMinutes,
		LateWindowHours:           cfg.Adherence.LateWindowHours,
		CulturalAdjustmentEnabled: cfg.Adherence.CulturalAdjustmentEnabled,
		MinimumAdherenceThreshold: cfg.Adherence.MinimumAdherenceThreshold,
		RecoveryWindowHours:       cfg.Adherence.RecoveryWindowHours,
	}
	engine, err := adherence.NewEngine(engineConfig, adherence.NewReportCache(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize adherence engine", zap.Error(err))
	}

	// Initialize the insight narrator when Azure OpenAI is configured
	var narrator *service.InsightNarrator
	if cfg.Azure.OpenAI.Endpoint != "" {
		openAIClient, err := azure.NewOpenAIClient(
			cfg.Azure.OpenAI.Endpoint,
			cfg.Azure.OpenAI.APIKey,
			cfg.Azure.OpenAI.Deployment,
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Azure OpenAI client", zap.Error(err))
		}
		narrator = service.NewInsightNarrator(openAIClient, logger)
	} else {
		logger.Info("Azure OpenAI not configured, insight narratives disabled")
	}

	// Initialize blob storage for report files; fall back to the in-memory
	// store when Azure Storage is not configured
	var blobClient azure.BlobStorage
	if cfg.Azure.Storage.AccountName != "" {
		blobClient, err = azure.NewBlobStorageClient(
			cfg.Azure.Storage.AccountName,
			cfg.Azure.Storage.AccountKey,
			cfg.Azure.Storage.ReportContainer,
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Azure Blob Storage client", zap.Error(err))
		}
	} else {
		logger.Warn("Azure Storage not configured, using in-memory report storage")
		blobClient = azure.NewMockBlobStorageClient()
	}

	// Initialize repositories
	medicationRepo := repository.NewMedicationRepository(pool, logger)
	intakeRepo := repository.NewIntakeRepository(pool, logger)
	reportRepo := repository.NewReportRepository(pool, logger)

	// Initialize services
	medicationService := service.NewMedicationService(medicationRepo, logger)
	intakeService := service.NewIntakeService(intakeRepo, medicationRepo, engine, logger)
	adherenceService := service.NewAdherenceService(intakeRepo, medicationRepo, engine, narrator, logger)

	pdfGenerator := pdf.NewPDFGenerator(logger)
	reportService := service.NewReportService(
		reportRepo,
		intakeRepo,
		medicationRepo,
		engine,
		blobClient,
		pdfGenerator,
		logger,
	)

	// Initialize handlers
	handlers := handler.Handlers{
		Medication: handler.NewMedicationHandler(medicationService, logger),
		Intake:     handler.NewIntakeHandler(intakeService, logger),
		Adherence:  handler.NewAdherenceHandler(adherenceService, logger),
		Report:     handler.NewReportHandler(reportService, logger),
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := handler.NewRouter(handlers, pool, logger)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	pool.Close()

	logger.Info("Server exited")
}
