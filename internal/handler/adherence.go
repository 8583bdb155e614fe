package handler

import (
	"net/http"

	"github.com/dawahealth/adherence-backend/internal/adherence"
	"github.com/dawahealth/adherence-backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdherenceHandler implements adherence analytics API endpoints
type AdherenceHandler struct {
	service *service.AdherenceService
	logger  *zap.Logger
}

// NewAdherenceHandler creates a new AdherenceHandler
func NewAdherenceHandler(service *service.AdherenceService, logger *zap.Logger) *AdherenceHandler {
	return &AdherenceHandler{
		service: service,
		logger:  logger,
	}
}

// GetProgressReport returns the combined adherence report for a patient
func (h *AdherenceHandler) GetProgressReport(c *gin.Context) {
	patientID := c.Param("patientId")
	period := c.DefaultQuery("period", "weekly")
	includeInsights := c.Query("include_insights") == "true"

	metrics, err := h.service.GetProgressReport(c.Request.Context(), patientID, period, includeInsights)
	if err != nil {
		h.logger.Error("failed to build progress report",
			zap.Error(err),
			zap.String("patient_id", patientID),
			zap.String("period", period),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to build progress report",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// GetStreaks returns streak statistics for a patient
func (h *AdherenceHandler) GetStreaks(c *gin.Context) {
	patientID := c.Param("patientId")

	start, end, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid date range",
			Details: stringPtr(err.Error()),
		})
		return
	}

	streaks, err := h.service.GetStreaks(c.Request.Context(), patientID, start, end)
	if err != nil {
		h.logger.Error("failed to compute streaks",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to compute streaks",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, streaks)
}

// GetPatterns returns detected adherence patterns for a patient
func (h *AdherenceHandler) GetPatterns(c *gin.Context) {
	patientID := c.Param("patientId")

	start, end, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid date range",
			Details: stringPtr(err.Error()),
		})
		return
	}

	patterns, err := h.service.GetPatterns(c.Request.Context(), patientID, start, end)
	if err != nil {
		h.logger.Error("failed to detect patterns",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to detect patterns",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

// GetConfig returns the current engine configuration
func (h *AdherenceHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetConfig())
}

// UpdateConfig applies a partial engine configuration update
func (h *AdherenceHandler) UpdateConfig(c *gin.Context) {
	var update adherence.ConfigUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	cfg, err := h.service.UpdateConfig(update)
	if err != nil {
		h.logger.Warn("rejected configuration update", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid configuration",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, cfg)
}
