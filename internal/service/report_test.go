package service

import (
	"context"
	"testing"
	"time"

	"github.com/dawahealth/adherence-backend/internal/adherence"
	"github.com/dawahealth/adherence-backend/internal/azure"
	"github.com/dawahealth/adherence-backend/internal/pdf"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockReportRepository is a mock implementation of ReportRepositoryInterface
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *model.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) FindByID(ctx context.Context, reportID string) (*model.Report, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) FindByPatientID(ctx context.Context, patientID string) ([]model.Report, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

func newTestReportService(t *testing.T, reportRepo *MockReportRepository, intakeRepo *MockIntakeRepository, medRepo *MockMedicationRepository, blob azure.BlobStorage) *ReportService {
	t.Helper()
	logger := zap.NewNop()
	engine, err := adherence.NewEngine(adherence.DefaultConfig(), adherence.NewReportCache(), logger)
	require.NoError(t, err)
	return NewReportService(reportRepo, intakeRepo, medRepo, engine, blob, pdf.NewPDFGenerator(logger), logger)
}

func TestGenerateReport_UploadsAndPersists(t *testing.T) {
	// Arrange
	reportRepo := new(MockReportRepository)
	intakeRepo := new(MockIntakeRepository)
	medRepo := new(MockMedicationRepository)
	blob := azure.NewMockBlobStorageClient()
	service := newTestReportService(t, reportRepo, intakeRepo, medRepo, blob)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	scheduled := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	taken := scheduled.Add(10 * time.Minute)
	records := []model.IntakeRecord{
		{
			ID:            "r1",
			MedicationID:  "med-1",
			PatientID:     "patient-1",
			ScheduledTime: scheduled,
			TakenTime:     &taken,
		},
	}
	medications := []model.Medication{
		{ID: "med-1", PatientID: "patient-1", Name: "Metformin", Dosage: "500mg", Frequency: "twice daily"},
	}

	medRepo.On("FindByPatientID", ctx, "patient-1").Return(medications, nil)
	intakeRepo.On("FindByPatientID", ctx, "patient-1", start, end).Return(records, nil)
	reportRepo.On("Create", ctx, mock.AnythingOfType("*model.Report")).Return(nil)

	// Act
	reportID, err := service.GenerateReport(ctx, "patient-1", "Amina Rahman", start, end)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, reportID)
	assert.Len(t, blob.ListBlobs(), 1, "PDF should be uploaded to blob storage")
	reportRepo.AssertExpectations(t)
}

func TestGenerateReport_RejectsInvertedRange(t *testing.T) {
	service := newTestReportService(t, new(MockReportRepository), new(MockIntakeRepository), new(MockMedicationRepository), azure.NewMockBlobStorageClient())

	start := time.Now()
	reportID, err := service.GenerateReport(context.Background(), "patient-1", "Amina Rahman", start, start.AddDate(0, 0, -7))

	assert.Error(t, err)
	assert.Empty(t, reportID)
}

func TestGetReport_DownloadsFromBlobStorage(t *testing.T) {
	// Arrange
	reportRepo := new(MockReportRepository)
	blob := azure.NewMockBlobStorageClient()
	service := newTestReportService(t, reportRepo, new(MockIntakeRepository), new(MockMedicationRepository), blob)
	ctx := context.Background()

	pdfBytes := []byte("%PDF-1.4 stored report")
	blobPath, err := blob.UploadReport(ctx, "report-1.pdf", pdfBytes)
	require.NoError(t, err)

	reportRepo.On("FindByID", ctx, "report-1").Return(&model.Report{
		ID:        "report-1",
		PatientID: "patient-1",
		FilePath:  blobPath,
	}, nil)

	// Act
	data, err := service.GetReport(ctx, "report-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)
}

func TestGetReport_MissingRecord(t *testing.T) {
	// Arrange
	reportRepo := new(MockReportRepository)
	service := newTestReportService(t, reportRepo, new(MockIntakeRepository), new(MockMedicationRepository), azure.NewMockBlobStorageClient())
	ctx := context.Background()

	reportRepo.On("FindByID", ctx, "missing").Return(nil, assert.AnError)

	// Act
	data, err := service.GetReport(ctx, "missing")

	// Assert
	assert.Error(t, err)
	assert.Nil(t, data)
}
