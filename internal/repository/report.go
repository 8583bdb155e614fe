package repository

import (
	"context"
	"fmt"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ReportRepository manages generated report metadata
type ReportRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *pgxpool.Pool, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores metadata for a generated report
func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `
		INSERT INTO reports (
			id, patient_id, date_range_start, date_range_end,
			file_path, generated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err := r.db.Exec(ctx, query,
		report.ID,
		report.PatientID,
		report.DateRangeStart,
		report.DateRangeEnd,
		report.FilePath,
		report.GeneratedAt,
	)

	if err != nil {
		r.logger.Error("failed to create report",
			zap.Error(err),
			zap.String("report_id", report.ID),
			zap.String("patient_id", report.PatientID),
		)
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// FindByID retrieves a report by ID
func (r *ReportRepository) FindByID(ctx context.Context, reportID string) (*model.Report, error) {
	query := `
		SELECT id, patient_id, date_range_start, date_range_end,
		       file_path, generated_at, created_at
		FROM reports
		WHERE id = $1
	`

	var report model.Report
	err := r.db.QueryRow(ctx, query, reportID).Scan(
		&report.ID,
		&report.PatientID,
		&report.DateRangeStart,
		&report.DateRangeEnd,
		&report.FilePath,
		&report.GeneratedAt,
		&report.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("report not found: %s", reportID)
		}
		r.logger.Error("failed to find report", zap.Error(err), zap.String("report_id", reportID))
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}

// FindByPatientID retrieves all reports for a patient, newest first
func (r *ReportRepository) FindByPatientID(ctx context.Context, patientID string) ([]model.Report, error) {
	query := `
		SELECT id, patient_id, date_range_start, date_range_end,
		       file_path, generated_at, created_at
		FROM reports
		WHERE patient_id = $1
		ORDER BY generated_at DESC
	`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.logger.Error("failed to find reports", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		var report model.Report
		err := rows.Scan(
			&report.ID,
			&report.PatientID,
			&report.DateRangeStart,
			&report.DateRangeEnd,
			&report.FilePath,
			&report.GeneratedAt,
			&report.CreatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan report", zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating reports", zap.Error(err))
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}
