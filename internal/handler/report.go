package handler

import (
	"fmt"
	"net/http"

	"github.com/dawahealth/adherence-backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportHandler implements report API endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

// GenerateReportRequest is the payload for generating an adherence report
type GenerateReportRequest struct {
	PatientID   string `json:"patient_id" binding:"required"`
	PatientName string `json:"patient_name"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// GenerateReport generates an adherence report PDF
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid start_date, expected YYYY-MM-DD",
		})
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid end_date, expected YYYY-MM-DD",
		})
		return
	}
	if startDate.After(endDate) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Start date must be before or equal to end date",
		})
		return
	}

	patientName := req.PatientName
	if patientName == "" {
		patientName = "Patient"
	}

	reportID, err := h.service.GenerateReport(c.Request.Context(), req.PatientID, patientName, startDate, endDate)
	if err != nil {
		h.logger.Error("failed to generate report",
			zap.Error(err),
			zap.String("patient_id", req.PatientID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to generate report",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.logger.Info("report generated",
		zap.String("report_id", reportID),
		zap.String("patient_id", req.PatientID),
	)

	c.JSON(http.StatusOK, gin.H{
		"report_id": reportID,
		"message":   "Report generated successfully",
	})
}

// DownloadReport downloads a generated report PDF
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	reportID := c.Param("id")

	pdfBytes, err := h.service.GetReport(c.Request.Context(), reportID)
	if err != nil {
		h.logger.Error("failed to get report",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Report not found",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=adherence_report_%s.pdf", reportID))
	c.Header("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// ListReports lists report metadata for a patient
func (h *ReportHandler) ListReports(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "patient_id query parameter is required",
		})
		return
	}

	reports, err := h.service.GetReportsByPatientID(c.Request.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list reports",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to list reports",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
