package handler

import (
	"net/http"
	"time"

	"github.com/dawahealth/adherence-backend/internal/service"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IntakeHandler implements dose logging API endpoints
type IntakeHandler struct {
	service *service.IntakeService
	logger  *zap.Logger
}

// NewIntakeHandler creates a new IntakeHandler
func NewIntakeHandler(service *service.IntakeService, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{
		service: service,
		logger:  logger,
	}
}

// LogIntakeRequest is the payload for logging a dose occurrence
type LogIntakeRequest struct {
	PatientID       string                 `json:"patient_id" binding:"required"`
	MedicationID    string                 `json:"medication_id" binding:"required"`
	ScheduledTime   time.Time              `json:"scheduled_time" binding:"required"`
	TakenTime       *time.Time             `json:"taken_time"`
	CulturalContext *model.CulturalContext `json:"cultural_context"`
}

// MarkTakenRequest is the payload for recording a late or recovered dose
type MarkTakenRequest struct {
	TakenTime       time.Time              `json:"taken_time" binding:"required"`
	CulturalContext *model.CulturalContext `json:"cultural_context"`
}

// LogIntake records a scheduled dose occurrence
func (h *IntakeHandler) LogIntake(c *gin.Context) {
	var req LogIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	record, err := h.service.LogIntake(c.Request.Context(), req.PatientID, req.MedicationID, req.ScheduledTime, req.TakenTime, req.CulturalContext)
	if err != nil {
		h.logger.Error("failed to log intake",
			zap.Error(err),
			zap.String("patient_id", req.PatientID),
			zap.String("medication_id", req.MedicationID),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to log intake",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// MarkTaken records the actual taken time on an existing intake record
func (h *IntakeHandler) MarkTaken(c *gin.Context) {
	recordID := c.Param("id")

	var req MarkTakenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	record, err := h.service.MarkTaken(c.Request.Context(), recordID, req.TakenTime, req.CulturalContext)
	if err != nil {
		h.logger.Error("failed to mark intake as taken",
			zap.Error(err),
			zap.String("record_id", recordID),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to update intake",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListIntakes lists intake records for a patient within a date range
func (h *IntakeHandler) ListIntakes(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "patient_id query parameter is required",
		})
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid date range",
			Details: stringPtr(err.Error()),
		})
		return
	}

	records, err := h.service.ListByPatient(c.Request.Context(), patientID, start, end)
	if err != nil {
		h.logger.Error("failed to list intakes",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to list intakes",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// parseDateRange reads start_date and end_date query parameters, defaulting
// to the last 30 days
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// Make the end date inclusive of the whole day
		end = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	return start, end, nil
}
