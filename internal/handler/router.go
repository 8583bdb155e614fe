package handler

import (
	"net/http"
	"time"

	"github.com/dawahealth/adherence-backend/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Handlers bundles the endpoint handlers wired into the router
type Handlers struct {
	Medication *MedicationHandler
	Intake     *IntakeHandler
	Adherence  *AdherenceHandler
	Report     *ReportHandler
}

// NewRouter builds the gin engine with middleware and all API routes
func NewRouter(h Handlers, pool *pgxpool.Pool, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// Recovery must run first
	r.Use(middleware.RecoveryMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	r.GET("/health", healthCheck(pool, logger))

	v1 := r.Group("/api/v1")
	{
		medications := v1.Group("/medications")
		{
			medications.POST("", h.Medication.CreateMedication)
			medications.GET("", h.Medication.ListMedications)
			medications.GET("/:id", h.Medication.GetMedication)
			medications.PUT("/:id", h.Medication.UpdateMedication)
			medications.DELETE("/:id", h.Medication.DeleteMedication)
		}

		intakes := v1.Group("/intakes")
		{
			intakes.POST("", h.Intake.LogIntake)
			intakes.GET("", h.Intake.ListIntakes)
			intakes.PUT("/:id/taken", h.Intake.MarkTaken)
		}

		adherence := v1.Group("/adherence")
		{
			adherence.GET("/patients/:patientId/progress", h.Adherence.GetProgressReport)
			adherence.GET("/patients/:patientId/streaks", h.Adherence.GetStreaks)
			adherence.GET("/patients/:patientId/patterns", h.Adherence.GetPatterns)
			adherence.GET("/config", h.Adherence.GetConfig)
			adherence.PUT("/config", h.Adherence.UpdateConfig)
		}

		reports := v1.Group("/reports")
		{
			reports.POST("/generate", h.Report.GenerateReport)
			reports.GET("", h.Report.ListReports)
			reports.GET("/:id", h.Report.DownloadReport)
		}
	}

	return r
}

// healthCheck verifies database connectivity
func healthCheck(pool *pgxpool.Pool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				logger.Error("health check failed: database unreachable", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"database": "disconnected",
					"error":    err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
			"service":  "adherence-backend",
			"version":  "1.0.0",
		})
	}
}
