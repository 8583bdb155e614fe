package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// IntakeRepository manages intake record data
type IntakeRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewIntakeRepository creates a new IntakeRepository
func NewIntakeRepository(db *pgxpool.Pool, logger *zap.Logger) *IntakeRepository {
	return &IntakeRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new intake record
func (r *IntakeRepository) Create(ctx context.Context, record *model.IntakeRecord) error {
	culturalContext, err := marshalCulturalContext(record.CulturalContext)
	if err != nil {
		return fmt.Errorf("failed to encode cultural context: %w", err)
	}

	query := `
		INSERT INTO intake_records (
			id, medication_id, patient_id, scheduled_time, taken_time,
			status, score, delay_minutes, cultural_context,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`

	_, err = r.db.Exec(ctx, query,
		record.ID,
		record.MedicationID,
		record.PatientID,
		record.ScheduledTime,
		record.TakenTime,
		record.Status,
		record.Score,
		record.DelayMinutes,
		culturalContext,
	)

	if err != nil {
		r.logger.Error("failed to create intake record",
			zap.Error(err),
			zap.String("record_id", record.ID),
			zap.String("patient_id", record.PatientID),
		)
		return fmt.Errorf("failed to create intake record: %w", err)
	}

	return nil
}

// Update updates an existing intake record
func (r *IntakeRepository) Update(ctx context.Context, record *model.IntakeRecord) error {
	culturalContext, err := marshalCulturalContext(record.CulturalContext)
	if err != nil {
		return fmt.Errorf("failed to encode cultural context: %w", err)
	}

	query := `
		UPDATE intake_records
		SET taken_time = $1, status = $2, score = $3,
		    delay_minutes = $4, cultural_context = $5, updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.db.Exec(ctx, query,
		record.TakenTime,
		record.Status,
		record.Score,
		record.DelayMinutes,
		culturalContext,
		record.ID,
	)

	if err != nil {
		r.logger.Error("failed to update intake record",
			zap.Error(err),
			zap.String("record_id", record.ID),
		)
		return fmt.Errorf("failed to update intake record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("intake record not found: %s", record.ID)
	}

	return nil
}

// FindByID retrieves an intake record by ID
func (r *IntakeRepository) FindByID(ctx context.Context, recordID string) (*model.IntakeRecord, error) {
	query := `
		SELECT
			id, medication_id, patient_id, scheduled_time, taken_time,
			status, score, delay_minutes, cultural_context,
			created_at, updated_at
		FROM intake_records
		WHERE id = $1
	`

	record, err := scanIntakeRecord(r.db.QueryRow(ctx, query, recordID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("intake record not found: %s", recordID)
		}
		r.logger.Error("failed to find intake record", zap.Error(err), zap.String("record_id", recordID))
		return nil, fmt.Errorf("failed to find intake record: %w", err)
	}

	return record, nil
}

// FindByPatientID retrieves intake records for a patient whose scheduled
// time falls within [start, end], sorted by scheduled time ascending
func (r *IntakeRepository) FindByPatientID(ctx context.Context, patientID string, start, end time.Time) ([]model.IntakeRecord, error) {
	query := `
		SELECT
			id, medication_id, patient_id, scheduled_time, taken_time,
			status, score, delay_minutes, cultural_context,
			created_at, updated_at
		FROM intake_records
		WHERE patient_id = $1
		  AND scheduled_time >= $2
		  AND scheduled_time <= $3
		ORDER BY scheduled_time ASC
	`

	rows, err := r.db.Query(ctx, query, patientID, start, end)
	if err != nil {
		r.logger.Error("failed to find intake records", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find intake records: %w", err)
	}
	defer rows.Close()

	return r.collectIntakeRecords(rows)
}

// FindByMedicationID retrieves all intake records for a medication,
// sorted by scheduled time ascending
func (r *IntakeRepository) FindByMedicationID(ctx context.Context, medicationID string) ([]model.IntakeRecord, error) {
	query := `
		SELECT
			id, medication_id, patient_id, scheduled_time, taken_time,
			status, score, delay_minutes, cultural_context,
			created_at, updated_at
		FROM intake_records
		WHERE medication_id = $1
		ORDER BY scheduled_time ASC
	`

	rows, err := r.db.Query(ctx, query, medicationID)
	if err != nil {
		r.logger.Error("failed to find intake records", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find intake records: %w", err)
	}
	defer rows.Close()

	return r.collectIntakeRecords(rows)
}

func (r *IntakeRepository) collectIntakeRecords(rows pgx.Rows) ([]model.IntakeRecord, error) {
	var records []model.IntakeRecord
	for rows.Next() {
		record, err := scanIntakeRecord(rows)
		if err != nil {
			r.logger.Error("failed to scan intake record", zap.Error(err))
			continue
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating intake records", zap.Error(err))
		return nil, fmt.Errorf("error iterating intake records: %w", err)
	}

	return records, nil
}

func scanIntakeRecord(row pgx.Row) (*model.IntakeRecord, error) {
	var record model.IntakeRecord
	var culturalContext []byte

	err := row.Scan(
		&record.ID,
		&record.MedicationID,
		&record.PatientID,
		&record.ScheduledTime,
		&record.TakenTime,
		&record.Status,
		&record.Score,
		&record.DelayMinutes,
		&culturalContext,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(culturalContext) > 0 {
		var cc model.CulturalContext
		if err := json.Unmarshal(culturalContext, &cc); err != nil {
			return nil, fmt.Errorf("failed to decode cultural context: %w", err)
		}
		record.CulturalContext = &cc
	}

	return &record, nil
}

// marshalCulturalContext encodes the cultural context as JSONB, keeping
// the column NULL when no context was reported
func marshalCulturalContext(cc *model.CulturalContext) ([]byte, error) {
	if cc == nil {
		return nil, nil
	}
	return json.Marshal(cc)
}
