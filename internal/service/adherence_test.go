package service

import (
	"context"
	"testing"
	"time"

	"github.com/dawahealth/adherence-backend/internal/adherence"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdherenceService(t *testing.T, intakeRepo *MockIntakeRepository, medRepo *MockMedicationRepository, narrator *InsightNarrator) *AdherenceService {
	t.Helper()
	engine, err := adherence.NewEngine(adherence.DefaultConfig(), adherence.NewReportCache(), zap.NewNop())
	require.NoError(t, err)
	return NewAdherenceService(intakeRepo, medRepo, engine, narrator, zap.NewNop())
}

func intakeAt(id string, scheduled time.Time, delay time.Duration) model.IntakeRecord {
	taken := scheduled.Add(delay)
	return model.IntakeRecord{
		ID:            id,
		MedicationID:  "med-1",
		PatientID:     "patient-1",
		ScheduledTime: scheduled,
		TakenTime:     &taken,
	}
}

func TestGetProgressReport_ComposesMetrics(t *testing.T) {
	// Arrange
	intakeRepo := new(MockIntakeRepository)
	medRepo := new(MockMedicationRepository)
	service := newTestAdherenceService(t, intakeRepo, medRepo, nil)
	ctx := context.Background()

	base := time.Now().Add(-48 * time.Hour)
	records := []model.IntakeRecord{
		intakeAt("r1", base, 5*time.Minute),
		intakeAt("r2", base.Add(12*time.Hour), 10*time.Minute),
		intakeAt("r3", base.Add(24*time.Hour), 0),
	}
	medications := []model.Medication{
		{ID: "med-1", PatientID: "patient-1", Name: "Metformin"},
	}

	medRepo.On("FindByPatientID", ctx, "patient-1").Return(medications, nil)
	intakeRepo.On("FindByPatientID", ctx, "patient-1", mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(records, nil)

	// Act
	metrics, err := service.GetProgressReport(ctx, "patient-1", "weekly", false)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "patient-1", metrics.PatientID)
	assert.Equal(t, "weekly", metrics.Period)
	assert.Equal(t, 3, metrics.TotalRecords)
	assert.Equal(t, 100.0, metrics.OverallRate)
	assert.True(t, metrics.MeetsThreshold)
	require.Len(t, metrics.PerMedication, 1)
	assert.Equal(t, "Metformin", metrics.PerMedication[0].MedicationName)
	assert.Nil(t, metrics.InsightNarrative)
}

func TestGetProgressReport_InvalidPeriod(t *testing.T) {
	service := newTestAdherenceService(t, new(MockIntakeRepository), new(MockMedicationRepository), nil)

	metrics, err := service.GetProgressReport(context.Background(), "patient-1", "yearly", false)

	assert.Error(t, err)
	assert.Nil(t, metrics)
	assert.Contains(t, err.Error(), "invalid period")
}

func TestGetProgressReport_WithInsightNarrative(t *testing.T) {
	// Arrange
	intakeRepo := new(MockIntakeRepository)
	medRepo := new(MockMedicationRepository)
	completer := new(MockCompleter)
	narrator := NewInsightNarrator(completer, zap.NewNop())
	service := newTestAdherenceService(t, intakeRepo, medRepo, narrator)
	ctx := context.Background()

	base := time.Now().Add(-24 * time.Hour)
	records := []model.IntakeRecord{intakeAt("r1", base, 0)}

	medRepo.On("FindByPatientID", ctx, "patient-1").Return([]model.Medication{}, nil)
	intakeRepo.On("FindByPatientID", ctx, "patient-1", mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(records, nil)
	completer.On("Complete", ctx, mock.Anything).Return("Great adherence this week.", nil)

	// Act
	metrics, err := service.GetProgressReport(ctx, "patient-1", "weekly", true)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, metrics.InsightNarrative)
	assert.Equal(t, "Great adherence this week.", *metrics.InsightNarrative)
}

func TestGetProgressReport_NarrationFailureDegradesGracefully(t *testing.T) {
	// Arrange
	intakeRepo := new(MockIntakeRepository)
	medRepo := new(MockMedicationRepository)
	completer := new(MockCompleter)
	narrator := NewInsightNarrator(completer, zap.NewNop())
	service := newTestAdherenceService(t, intakeRepo, medRepo, narrator)
	ctx := context.Background()

	medRepo.On("FindByPatientID", ctx, "patient-1").Return([]model.Medication{}, nil)
	intakeRepo.On("FindByPatientID", ctx, "patient-1", mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return([]model.IntakeRecord{}, nil)
	completer.On("Complete", ctx, mock.Anything).Return("", assert.AnError)

	// Act
	metrics, err := service.GetProgressReport(ctx, "patient-1", "daily", true)

	// Assert
	require.NoError(t, err, "narration failure should not fail the report")
	assert.Nil(t, metrics.InsightNarrative)
}

func TestGetStreaks_DelegatesToEngine(t *testing.T) {
	// Arrange
	intakeRepo := new(MockIntakeRepository)
	medRepo := new(MockMedicationRepository)
	service := newTestAdherenceService(t, intakeRepo, medRepo, nil)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 23, 59, 59, 0, time.UTC)
	records := []model.IntakeRecord{
		intakeAt("r1", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 0),
		intakeAt("r2", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 0),
		intakeAt("r3", time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC), 0),
	}
	intakeRepo.On("FindByPatientID", ctx, "patient-1", start, end).Return(records, nil)

	// Act
	streaks, err := service.GetStreaks(ctx, "patient-1", start, end)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, streaks.LongestStreak)
}

func TestUpdateConfig_Passthrough(t *testing.T) {
	// Arrange
	service := newTestAdherenceService(t, new(MockIntakeRepository), new(MockMedicationRepository), nil)
	window := 45

	// Act
	cfg, err := service.UpdateConfig(adherence.ConfigUpdate{OnTimeWindowMinutes: &window})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.OnTimeWindowMinutes)
}

func TestUpdateConfig_InvalidKeepsCurrent(t *testing.T) {
	// Arrange
	service := newTestAdherenceService(t, new(MockIntakeRepository), new(MockMedicationRepository), nil)
	negative := -5

	// Act
	cfg, err := service.UpdateConfig(adherence.ConfigUpdate{OnTimeWindowMinutes: &negative})

	// Assert
	assert.ErrorIs(t, err, adherence.ErrInvalidConfig)
	assert.Equal(t, adherence.DefaultConfig().OnTimeWindowMinutes, cfg.OnTimeWindowMinutes)
}
