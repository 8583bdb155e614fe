package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dawahealth/adherence-backend/internal/adherence"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntakeRepositoryInterface defines the interface for intake record data access
type IntakeRepositoryInterface interface {
	Create(ctx context.Context, record *model.IntakeRecord) error
	Update(ctx context.Context, record *model.IntakeRecord) error
	FindByID(ctx context.Context, recordID string) (*model.IntakeRecord, error)
	FindByPatientID(ctx context.Context, patientID string, start, end time.Time) ([]model.IntakeRecord, error)
	FindByMedicationID(ctx context.Context, medicationID string) ([]model.IntakeRecord, error)
}

// IntakeService handles dose logging business logic
type IntakeService struct {
	intakeRepo IntakeRepositoryInterface
	medRepo    MedicationRepositoryInterface
	engine     *adherence.Engine
	logger     *zap.Logger
}

// NewIntakeService creates a new IntakeService
func NewIntakeService(intakeRepo IntakeRepositoryInterface, medRepo MedicationRepositoryInterface, engine *adherence.Engine, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		intakeRepo: intakeRepo,
		medRepo:    medRepo,
		engine:     engine,
		logger:     logger,
	}
}

// LogIntake records a scheduled dose occurrence, classifying it against
// the current engine configuration before persisting
func (s *IntakeService) LogIntake(ctx context.Context, patientID, medicationID string, scheduledTime time.Time, takenTime *time.Time, culturalContext *model.CulturalContext) (*model.IntakeRecord, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}
	if medicationID == "" {
		return nil, fmt.Errorf("medication ID is required")
	}
	if scheduledTime.IsZero() {
		return nil, fmt.Errorf("scheduled time is required")
	}
	if err := validateCulturalContext(culturalContext); err != nil {
		return nil, err
	}

	med, err := s.medRepo.FindByID(ctx, medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve medication: %w", err)
	}
	if med.PatientID != patientID {
		return nil, fmt.Errorf("medication %s does not belong to patient %s", medicationID, patientID)
	}

	classification := s.engine.Classify(scheduledTime, takenTime, culturalContext)

	now := time.Now()
	record := &model.IntakeRecord{
		ID:              uuid.New().String(),
		MedicationID:    medicationID,
		PatientID:       patientID,
		ScheduledTime:   scheduledTime,
		TakenTime:       takenTime,
		Status:          classification.Status,
		Score:           classification.Score,
		CulturalContext: culturalContext,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.engine.Reclassify(record)

	if err := s.intakeRepo.Create(ctx, record); err != nil {
		s.logger.Error("failed to log intake",
			zap.Error(err),
			zap.String("patient_id", patientID),
			zap.String("medication_id", medicationID),
		)
		return nil, fmt.Errorf("failed to log intake: %w", err)
	}

	s.logger.Info("intake logged",
		zap.String("record_id", record.ID),
		zap.String("patient_id", patientID),
		zap.String("medication_id", medicationID),
		zap.String("status", string(record.Status)),
		zap.Float64("score", record.Score),
	)

	return record, nil
}

// MarkTaken updates an existing intake record with the actual taken time,
// for example when a missed dose is taken inside the recovery window
func (s *IntakeService) MarkTaken(ctx context.Context, recordID string, takenTime time.Time, culturalContext *model.CulturalContext) (*model.IntakeRecord, error) {
	if recordID == "" {
		return nil, fmt.Errorf("record ID is required")
	}
	if takenTime.IsZero() {
		return nil, fmt.Errorf("taken time is required")
	}
	if err := validateCulturalContext(culturalContext); err != nil {
		return nil, err
	}

	record, err := s.intakeRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to find intake record: %w", err)
	}

	record.TakenTime = &takenTime
	if culturalContext != nil {
		record.CulturalContext = culturalContext
	}
	s.engine.Reclassify(record)
	record.UpdatedAt = time.Now()

	if err := s.intakeRepo.Update(ctx, record); err != nil {
		s.logger.Error("failed to update intake record",
			zap.Error(err),
			zap.String("record_id", recordID),
		)
		return nil, fmt.Errorf("failed to update intake record: %w", err)
	}

	s.logger.Info("intake updated",
		zap.String("record_id", record.ID),
		zap.String("status", string(record.Status)),
		zap.Float64("score", record.Score),
	)

	return record, nil
}

// ListByPatient retrieves intake records for a patient within a date range
func (s *IntakeService) ListByPatient(ctx context.Context, patientID string, start, end time.Time) ([]model.IntakeRecord, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date must not be before start date")
	}

	records, err := s.intakeRepo.FindByPatientID(ctx, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake records: %w", err)
	}

	return records, nil
}

// ListByMedication retrieves all intake records for a medication
func (s *IntakeService) ListByMedication(ctx context.Context, medicationID string) ([]model.IntakeRecord, error) {
	if medicationID == "" {
		return nil, fmt.Errorf("medication ID is required")
	}

	records, err := s.intakeRepo.FindByMedicationID(ctx, medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake records: %w", err)
	}

	return records, nil
}

// validateCulturalContext rejects family-reported doses without a reporter
func validateCulturalContext(cc *model.CulturalContext) error {
	if cc == nil {
		return nil
	}
	if cc.FamilyReported && (cc.ReportedByMember == nil || *cc.ReportedByMember == "") {
		return fmt.Errorf("family-reported doses require the reporting member")
	}
	if cc.MealPreference != nil {
		switch *cc.MealPreference {
		case model.MealPreferenceBefore, model.MealPreferenceWith, model.MealPreferenceAfter:
		default:
			return fmt.Errorf("invalid meal preference: %s", *cc.MealPreference)
		}
	}
	return nil
}
