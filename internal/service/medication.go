package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MedicationRepositoryInterface defines the interface for medication data access
type MedicationRepositoryInterface interface {
	Create(ctx context.Context, med *model.Medication) error
	FindByPatientID(ctx context.Context, patientID string) ([]model.Medication, error)
	FindByID(ctx context.Context, medicationID string) (*model.Medication, error)
	Update(ctx context.Context, med *model.Medication) error
	Delete(ctx context.Context, medicationID string) error
}

// MedicationService handles medication management business logic
type MedicationService struct {
	repo   MedicationRepositoryInterface
	logger *zap.Logger
}

// NewMedicationService creates a new MedicationService
func NewMedicationService(repo MedicationRepositoryInterface, logger *zap.Logger) *MedicationService {
	return &MedicationService{
		repo:   repo,
		logger: logger,
	}
}

// AddMedication adds a new medication for a patient
func (s *MedicationService) AddMedication(ctx context.Context, patientID string, med *model.Medication) error {
	if patientID == "" {
		return fmt.Errorf("patient ID is required")
	}
	if med.Name == "" {
		return fmt.Errorf("medication name is required")
	}
	if med.Dosage == "" {
		return fmt.Errorf("medication dosage is required")
	}
	if med.Frequency == "" {
		return fmt.Errorf("medication frequency is required")
	}
	if err := validateScheduleTimes(med.ScheduleTimes); err != nil {
		return err
	}

	// Generate ID if not provided
	if med.ID == "" {
		med.ID = uuid.New().String()
	}

	med.PatientID = patientID

	// Set active status based on end date
	med.Active = true
	if med.EndDate != nil && med.EndDate.Before(time.Now()) {
		med.Active = false
	}

	now := time.Now()
	med.CreatedAt = now
	med.UpdatedAt = now

	if err := s.repo.Create(ctx, med); err != nil {
		s.logger.Error("failed to add medication",
			zap.Error(err),
			zap.String("patient_id", patientID),
			zap.String("medication_name", med.Name),
		)
		return fmt.Errorf("failed to add medication: %w", err)
	}

	s.logger.Info("medication added successfully",
		zap.String("medication_id", med.ID),
		zap.String("patient_id", patientID),
		zap.String("name", med.Name),
	)

	return nil
}

// ListMedications retrieves all medications for a patient
func (s *MedicationService) ListMedications(ctx context.Context, patientID string) ([]model.Medication, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}

	medications, err := s.repo.FindByPatientID(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to list medications",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}

	return medications, nil
}

// GetMedication retrieves a medication by ID
func (s *MedicationService) GetMedication(ctx context.Context, medicationID string) (*model.Medication, error) {
	if medicationID == "" {
		return nil, fmt.Errorf("medication ID is required")
	}

	med, err := s.repo.FindByID(ctx, medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	return med, nil
}

// UpdateMedication updates an existing medication
func (s *MedicationService) UpdateMedication(ctx context.Context, med *model.Medication) error {
	if med.ID == "" {
		return fmt.Errorf("medication ID is required")
	}
	if med.Name == "" {
		return fmt.Errorf("medication name is required")
	}
	if med.Dosage == "" {
		return fmt.Errorf("medication dosage is required")
	}
	if med.Frequency == "" {
		return fmt.Errorf("medication frequency is required")
	}
	if err := validateScheduleTimes(med.ScheduleTimes); err != nil {
		return err
	}

	med.Active = true
	if med.EndDate != nil && med.EndDate.Before(time.Now()) {
		med.Active = false
	}
	med.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, med); err != nil {
		s.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	s.logger.Info("medication updated successfully",
		zap.String("medication_id", med.ID),
	)

	return nil
}

// DeleteMedication deletes a medication
func (s *MedicationService) DeleteMedication(ctx context.Context, medicationID string) error {
	if medicationID == "" {
		return fmt.Errorf("medication ID is required")
	}

	if err := s.repo.Delete(ctx, medicationID); err != nil {
		s.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	s.logger.Info("medication deleted successfully",
		zap.String("medication_id", medicationID),
	)

	return nil
}

// validateScheduleTimes checks that each schedule entry is a valid HH:MM time
func validateScheduleTimes(scheduleTimes []string) error {
	for _, scheduleTime := range scheduleTimes {
		if _, err := time.Parse("15:04", scheduleTime); err != nil {
			return fmt.Errorf("invalid schedule time %q: must be in HH:MM format", scheduleTime)
		}
	}
	return nil
}
