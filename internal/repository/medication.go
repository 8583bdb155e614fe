package repository

import (
	"context"
	"fmt"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// MedicationRepository manages medication data
type MedicationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewMedicationRepository creates a new MedicationRepository
func NewMedicationRepository(db *pgxpool.Pool, logger *zap.Logger) *MedicationRepository {
	return &MedicationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new medication record
func (r *MedicationRepository) Create(ctx context.Context, med *model.Medication) error {
	query := `
		INSERT INTO medications (
			id, patient_id, name, dosage, frequency, schedule_times,
			start_date, end_date, notes, active,
			take_with_food, avoid_during_fasting, traditional_alternatives,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`

	_, err := r.db.Exec(ctx, query,
		med.ID,
		med.PatientID,
		med.Name,
		med.Dosage,
		med.Frequency,
		med.ScheduleTimes,
		med.StartDate,
		med.EndDate,
		med.Notes,
		med.Active,
		med.TakeWithFood,
		med.AvoidDuringFasting,
		med.TraditionalAlternatives,
	)

	if err != nil {
		r.logger.Error("failed to create medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
			zap.String("patient_id", med.PatientID),
		)
		return fmt.Errorf("failed to create medication: %w", err)
	}

	return nil
}

// FindByPatientID retrieves all medications for a patient, sorted by start date
func (r *MedicationRepository) FindByPatientID(ctx context.Context, patientID string) ([]model.Medication, error) {
	query := `
		SELECT
			id, patient_id, name, dosage, frequency, schedule_times,
			start_date, end_date, notes, active,
			take_with_food, avoid_during_fasting, traditional_alternatives,
			created_at, updated_at
		FROM medications
		WHERE patient_id = $1
		ORDER BY start_date DESC
	`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.logger.Error("failed to find medications", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find medications: %w", err)
	}
	defer rows.Close()

	var medications []model.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			r.logger.Error("failed to scan medication", zap.Error(err))
			continue
		}
		medications = append(medications, *med)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating medications", zap.Error(err))
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return medications, nil
}

// FindByID retrieves a medication by ID
func (r *MedicationRepository) FindByID(ctx context.Context, medicationID string) (*model.Medication, error) {
	query := `
		SELECT
			id, patient_id, name, dosage, frequency, schedule_times,
			start_date, end_date, notes, active,
			take_with_food, avoid_during_fasting, traditional_alternatives,
			created_at, updated_at
		FROM medications
		WHERE id = $1
	`

	med, err := scanMedication(r.db.QueryRow(ctx, query, medicationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("medication not found: %s", medicationID)
		}
		r.logger.Error("failed to find medication", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}

	return med, nil
}

// Update updates an existing medication record
func (r *MedicationRepository) Update(ctx context.Context, med *model.Medication) error {
	query := `
		UPDATE medications
		SET name = $1, dosage = $2, frequency = $3, schedule_times = $4,
		    start_date = $5, end_date = $6, notes = $7, active = $8,
		    take_with_food = $9, avoid_during_fasting = $10,
		    traditional_alternatives = $11, updated_at = NOW()
		WHERE id = $12
	`

	result, err := r.db.Exec(ctx, query,
		med.Name,
		med.Dosage,
		med.Frequency,
		med.ScheduleTimes,
		med.StartDate,
		med.EndDate,
		med.Notes,
		med.Active,
		med.TakeWithFood,
		med.AvoidDuringFasting,
		med.TraditionalAlternatives,
		med.ID,
	)

	if err != nil {
		r.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication not found: %s", med.ID)
	}

	return nil
}

// Delete deletes a medication record
func (r *MedicationRepository) Delete(ctx context.Context, medicationID string) error {
	query := `DELETE FROM medications WHERE id = $1`

	result, err := r.db.Exec(ctx, query, medicationID)
	if err != nil {
		r.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication not found: %s", medicationID)
	}

	return nil
}

func scanMedication(row pgx.Row) (*model.Medication, error) {
	var med model.Medication
	err := row.Scan(
		&med.ID,
		&med.PatientID,
		&med.Name,
		&med.Dosage,
		&med.Frequency,
		&med.ScheduleTimes,
		&med.StartDate,
		&med.EndDate,
		&med.Notes,
		&med.Active,
		&med.TakeWithFood,
		&med.AvoidDuringFasting,
		&med.TraditionalAlternatives,
		&med.CreatedAt,
		&med.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &med, nil
}
