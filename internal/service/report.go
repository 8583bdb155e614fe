package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dawahealth/adherence-backend/internal/adherence"
	"github.com/dawahealth/adherence-backend/internal/azure"
	"github.com/dawahealth/adherence-backend/internal/pdf"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportRepositoryInterface defines the interface for report metadata access
type ReportRepositoryInterface interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, reportID string) (*model.Report, error)
	FindByPatientID(ctx context.Context, patientID string) ([]model.Report, error)
}

// ReportService manages adherence report generation and retrieval
type ReportService struct {
	reportRepo ReportRepositoryInterface
	intakeRepo IntakeRepositoryInterface
	medRepo    MedicationRepositoryInterface
	engine     *adherence.Engine
	blobClient azure.BlobStorage
	pdfGen     *pdf.PDFGenerator
	logger     *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	reportRepo ReportRepositoryInterface,
	intakeRepo IntakeRepositoryInterface,
	medRepo MedicationRepositoryInterface,
	engine *adherence.Engine,
	blobClient azure.BlobStorage,
	pdfGen *pdf.PDFGenerator,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		intakeRepo: intakeRepo,
		medRepo:    medRepo,
		engine:     engine,
		blobClient: blobClient,
		pdfGen:     pdfGen,
		logger:     logger,
	}
}

// GenerateReport builds an adherence report PDF for a patient over a date
// range, uploads it to blob storage and records its metadata
func (s *ReportService) GenerateReport(ctx context.Context, patientID, patientName string, startDate, endDate time.Time) (string, error) {
	if patientID == "" {
		return "", fmt.Errorf("patient ID is required")
	}
	if endDate.Before(startDate) {
		return "", fmt.Errorf("end date must not be before start date")
	}

	s.logger.Info("generating adherence report",
		zap.String("patient_id", patientID),
		zap.Time("start_date", startDate),
		zap.Time("end_date", endDate),
	)

	reportID := uuid.New().String()

	medications, err := s.medRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to get medications for report",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return "", fmt.Errorf("failed to get medications: %w", err)
	}

	records, err := s.intakeRepo.FindByPatientID(ctx, patientID, startDate, endDate)
	if err != nil {
		s.logger.Error("failed to get intake records for report",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return "", fmt.Errorf("failed to get intake records: %w", err)
	}

	metrics := s.engine.BuildProgressReport(patientID, medications, records, "custom", startDate, endDate)

	dateRange := fmt.Sprintf("%s to %s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	reportData := &pdf.ReportData{
		PatientName: patientName,
		DateRange:   dateRange,
		Metrics:     &metrics,
		Medications: medications,
	}

	pdfBytes, err := s.pdfGen.Generate(reportData)
	if err != nil {
		s.logger.Error("failed to generate PDF",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return "", fmt.Errorf("failed to generate PDF: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.pdf", reportID, time.Now().Format("20060102"))
	blobPath, err := s.blobClient.UploadReport(ctx, filename, pdfBytes)
	if err != nil {
		s.logger.Error("failed to upload report to blob storage",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	report := &model.Report{
		ID:             reportID,
		PatientID:      patientID,
		DateRangeStart: startDate,
		DateRangeEnd:   endDate,
		FilePath:       blobPath,
		GeneratedAt:    time.Now(),
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		s.logger.Error("failed to save report record",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return "", fmt.Errorf("failed to save report record: %w", err)
	}

	s.logger.Info("adherence report generated successfully",
		zap.String("report_id", reportID),
		zap.String("patient_id", patientID),
		zap.String("blob_path", blobPath),
	)

	return reportID, nil
}

// GetReport retrieves a report PDF for download
func (s *ReportService) GetReport(ctx context.Context, reportID string) ([]byte, error) {
	s.logger.Info("retrieving report",
		zap.String("report_id", reportID),
	)

	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		s.logger.Error("failed to get report record",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return nil, fmt.Errorf("failed to get report record: %w", err)
	}

	pdfBytes, err := s.blobClient.DownloadReport(ctx, report.FilePath)
	if err != nil {
		s.logger.Error("failed to download report from blob storage",
			zap.Error(err),
			zap.String("report_id", reportID),
			zap.String("blob_path", report.FilePath),
		)
		return nil, fmt.Errorf("failed to download report: %w", err)
	}

	s.logger.Info("report retrieved successfully",
		zap.String("report_id", reportID),
		zap.Int("size_bytes", len(pdfBytes)),
	)

	return pdfBytes, nil
}

// GetReportsByPatientID retrieves all report records for a patient
func (s *ReportService) GetReportsByPatientID(ctx context.Context, patientID string) ([]model.Report, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}

	reports, err := s.reportRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to get reports for patient",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	return reports, nil
}
