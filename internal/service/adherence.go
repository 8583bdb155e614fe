package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dawahealth/adherence-backend/internal/adherence"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"go.uber.org/zap"
)

// AdherenceService produces adherence analytics for a patient by feeding
// stored intake records through the analytics engine
type AdherenceService struct {
	intakeRepo IntakeRepositoryInterface
	medRepo    MedicationRepositoryInterface
	engine     *adherence.Engine
	narrator   *InsightNarrator
	logger     *zap.Logger
	now        func() time.Time
}

// NewAdherenceService creates a new AdherenceService. The narrator is
// optional; without it reports carry no generated insight narrative.
func NewAdherenceService(intakeRepo IntakeRepositoryInterface, medRepo MedicationRepositoryInterface, engine *adherence.Engine, narrator *InsightNarrator, logger *zap.Logger) *AdherenceService {
	return &AdherenceService{
		intakeRepo: intakeRepo,
		medRepo:    medRepo,
		engine:     engine,
		narrator:   narrator,
		logger:     logger,
		now:        time.Now,
	}
}

// GetProgressReport builds the combined adherence report for a patient
// over the named period (daily, weekly or monthly)
func (s *AdherenceService) GetProgressReport(ctx context.Context, patientID, period string, includeInsights bool) (*model.ProgressMetrics, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}

	start, end, err := resolvePeriod(period, s.now())
	if err != nil {
		return nil, err
	}

	medications, records, err := s.loadPatientData(ctx, patientID, start, end)
	if err != nil {
		return nil, err
	}

	var opts []adherence.ReportOption
	if includeInsights && s.narrator != nil {
		// Narrate over a metrics pass without insights, then rebuild
		base := s.engine.BuildProgressReport(patientID, medications, records, period, start, end)
		narrative, err := s.narrator.Narrate(ctx, &base)
		if err != nil {
			s.logger.Warn("insight narration failed, returning report without insights",
				zap.Error(err),
				zap.String("patient_id", patientID),
			)
		} else {
			opts = append(opts, adherence.WithInsightNarrative(narrative))
		}
	}

	metrics := s.engine.BuildProgressReport(patientID, medications, records, period, start, end, opts...)

	s.logger.Info("progress report built",
		zap.String("patient_id", patientID),
		zap.String("period", period),
		zap.Float64("overall_rate", metrics.OverallRate),
		zap.Int("total_records", metrics.TotalRecords),
	)

	return &metrics, nil
}

// GetStreaks computes streak statistics for a patient over a date range
func (s *AdherenceService) GetStreaks(ctx context.Context, patientID string, start, end time.Time) (*model.StreakData, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}

	records, err := s.intakeRepo.FindByPatientID(ctx, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load intake records: %w", err)
	}

	streaks := s.engine.ComputeStreaks(records)
	return &streaks, nil
}

// GetPatterns runs pattern detection for a patient over a date range
func (s *AdherenceService) GetPatterns(ctx context.Context, patientID string, start, end time.Time) ([]model.AdherencePattern, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}

	medications, records, err := s.loadPatientData(ctx, patientID, start, end)
	if err != nil {
		return nil, err
	}

	patterns := s.engine.DetectPatterns(records, medications)

	s.logger.Info("patterns detected",
		zap.String("patient_id", patientID),
		zap.Int("pattern_count", len(patterns)),
	)

	return patterns, nil
}

// GetConfig returns the current engine configuration
func (s *AdherenceService) GetConfig() adherence.Config {
	return s.engine.GetConfig()
}

// UpdateConfig applies a partial configuration update to the engine
func (s *AdherenceService) UpdateConfig(update adherence.ConfigUpdate) (adherence.Config, error) {
	if err := s.engine.UpdateConfig(update); err != nil {
		return s.engine.GetConfig(), err
	}
	return s.engine.GetConfig(), nil
}

func (s *AdherenceService) loadPatientData(ctx context.Context, patientID string, start, end time.Time) ([]model.Medication, []model.IntakeRecord, error) {
	medications, err := s.medRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load medications: %w", err)
	}

	records, err := s.intakeRepo.FindByPatientID(ctx, patientID, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load intake records: %w", err)
	}

	return medications, records, nil
}

// resolvePeriod maps a period name to the reporting window ending now
func resolvePeriod(period string, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case "daily":
		return now.AddDate(0, 0, -1), now, nil
	case "weekly":
		return now.AddDate(0, 0, -7), now, nil
	case "monthly":
		return now.AddDate(0, -1, 0), now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: must be daily, weekly or monthly", period)
	}
}
