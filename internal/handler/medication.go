package handler

import (
	"net/http"
	"time"

	"github.com/dawahealth/adherence-backend/internal/service"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MedicationHandler implements medication API endpoints
type MedicationHandler struct {
	service *service.MedicationService
	logger  *zap.Logger
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(service *service.MedicationService, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		service: service,
		logger:  logger,
	}
}

// MedicationRequest is the payload for creating or updating a medication
type MedicationRequest struct {
	PatientID               string     `json:"patient_id" binding:"required"`
	Name                    string     `json:"name" binding:"required"`
	Dosage                  string     `json:"dosage" binding:"required"`
	Frequency               string     `json:"frequency" binding:"required"`
	ScheduleTimes           []string   `json:"schedule_times"`
	StartDate               time.Time  `json:"start_date" binding:"required"`
	EndDate                 *time.Time `json:"end_date"`
	Notes                   *string    `json:"notes"`
	TakeWithFood            bool       `json:"take_with_food"`
	AvoidDuringFasting      bool       `json:"avoid_during_fasting"`
	TraditionalAlternatives []string   `json:"traditional_alternatives"`
}

func (r *MedicationRequest) toModel() *model.Medication {
	return &model.Medication{
		PatientID:               r.PatientID,
		Name:                    r.Name,
		Dosage:                  r.Dosage,
		Frequency:               r.Frequency,
		ScheduleTimes:           r.ScheduleTimes,
		StartDate:               r.StartDate,
		EndDate:                 r.EndDate,
		Notes:                   r.Notes,
		TakeWithFood:            r.TakeWithFood,
		AvoidDuringFasting:      r.AvoidDuringFasting,
		TraditionalAlternatives: r.TraditionalAlternatives,
	}
}

// CreateMedication adds a new medication
func (h *MedicationHandler) CreateMedication(c *gin.Context) {
	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	medication := req.toModel()

	if err := h.service.AddMedication(c.Request.Context(), req.PatientID, medication); err != nil {
		h.logger.Error("failed to add medication",
			zap.Error(err),
			zap.String("patient_id", req.PatientID),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to add medication",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.logger.Info("medication added",
		zap.String("medication_id", medication.ID),
		zap.String("patient_id", req.PatientID),
	)

	c.JSON(http.StatusCreated, medication)
}

// ListMedications lists all medications for a patient
func (h *MedicationHandler) ListMedications(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "patient_id query parameter is required",
		})
		return
	}

	medications, err := h.service.ListMedications(c.Request.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list medications",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to list medications",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medications": medications})
}

// GetMedication retrieves a single medication
func (h *MedicationHandler) GetMedication(c *gin.Context) {
	medicationID := c.Param("id")

	medication, err := h.service.GetMedication(c.Request.Context(), medicationID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Medication not found",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, medication)
}

// UpdateMedication updates an existing medication
func (h *MedicationHandler) UpdateMedication(c *gin.Context) {
	medicationID := c.Param("id")

	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	medication := req.toModel()
	medication.ID = medicationID

	if err := h.service.UpdateMedication(c.Request.Context(), medication); err != nil {
		h.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to update medication",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, medication)
}

// DeleteMedication deletes a medication
func (h *MedicationHandler) DeleteMedication(c *gin.Context) {
	medicationID := c.Param("id")

	if err := h.service.DeleteMedication(c.Request.Context(), medicationID); err != nil {
		h.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Failed to delete medication",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Medication deleted"})
}
