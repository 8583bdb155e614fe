// Package adherence implements the adherence analytics engine: dose
// classification with cultural accommodation, aggregate adherence rates,
// streak statistics, per-medication metrics and behavioral pattern
// detection. All computation is synchronous and side-effect-free; the
// only shared state is the configuration and the memoized report cache,
// both safe for concurrent callers.
package adherence

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"go.uber.org/zap"
)

// Engine computes adherence analytics over intake record sets
type Engine struct {
	mu            sync.RWMutex
	cfg           Config
	configVersion uint64

	cache  *ReportCache
	logger *zap.Logger

	// now is injectable for deterministic streak/recovery tests
	now func() time.Time
}

// NewEngine creates an Engine with the given configuration and report
// cache. The cache may be nil to disable memoization.
func NewEngine(cfg Config, cache *ReportCache, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:           cfg,
		configVersion: 1,
		cache:         cache,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// GetConfig returns the current configuration
func (e *Engine) GetConfig() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateConfig applies a partial configuration update. Invalid updates
// are rejected and leave the configuration unchanged. A successful
// update bumps the config version and drops all memoized reports; it
// never mutates already-stored records.
func (e *Engine) UpdateConfig(update ConfigUpdate) error {
	e.mu.Lock()
	next := update.apply(e.cfg)
	if err := next.Validate(); err != nil {
		e.mu.Unlock()
		e.logger.Warn("rejected adherence config update", zap.Error(err))
		return err
	}
	e.cfg = next
	e.configVersion++
	version := e.configVersion
	e.mu.Unlock()

	if e.cache != nil {
		e.cache.Clear()
	}

	e.logger.Info("adherence config updated",
		zap.Uint64("config_version", version),
		zap.Int("on_time_window_minutes", next.OnTimeWindowMinutes),
		zap.Int("late_window_hours", next.LateWindowHours),
		zap.Bool("cultural_adjustment_enabled", next.CulturalAdjustmentEnabled),
	)
	return nil
}

func (e *Engine) currentConfigVersion() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.configVersion
}

// AggregateRate reduces a record set to a single adherence percentage:
// the arithmetic mean of per-record scores. A late dose contributes
// partial credit rather than counting as a failure. Empty input yields 0.
func (e *Engine) AggregateRate(records []model.IntakeRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	cfg := e.GetConfig()
	var total float64
	for _, r := range records {
		c := classify(cfg, r.ScheduledTime, r.TakenTime, r.CulturalContext)
		total += c.Score
	}
	return total / float64(len(records))
}

// ValidateAccuracy reports whether actual is within tolerance of expected
func ValidateAccuracy(expected, actual, tolerance float64) bool {
	return math.Abs(expected-actual) <= tolerance
}

// ReportOption customizes BuildProgressReport
type ReportOption func(*reportOptions)

type reportOptions struct {
	insightNarrative *string
}

// WithInsightNarrative attaches a precomputed caregiver narrative to the
// report. The engine never generates narratives itself.
func WithInsightNarrative(narrative string) ReportOption {
	return func(o *reportOptions) {
		o.insightNarrative = &narrative
	}
}

// BuildProgressReport composes the full adherence report for a patient
// over a reporting period: overall rate, streaks, per-medication metrics
// and detected patterns. Results are memoized per (patient, period,
// record set, config version) when a cache is configured.
func (e *Engine) BuildProgressReport(patientID string, medications []model.Medication, records []model.IntakeRecord, period string, start, end time.Time, opts ...ReportOption) model.ProgressMetrics {
	var options reportOptions
	for _, opt := range opts {
		opt(&options)
	}

	cfg := e.GetConfig()
	scoped := filterRecords(records, patientID, start, end)

	key := reportKey{
		patientID:      patientID,
		period:         period,
		recordsVersion: fingerprintRecords(scoped),
		configVersion:  e.currentConfigVersion(),
	}
	if e.cache != nil && options.insightNarrative == nil {
		if cached, ok := e.cache.Get(key); ok {
			e.logger.Debug("progress report served from cache",
				zap.String("patient_id", patientID),
				zap.String("period", period),
			)
			return cached
		}
	}

	norm := normalized(cfg, scoped)

	perMedication := make([]model.MedicationAdherenceMetric, 0, len(medications))
	for _, med := range medications {
		perMedication = append(perMedication, e.MedicationMetrics(med, norm))
	}

	overall := e.AggregateRate(norm)
	report := model.ProgressMetrics{
		PatientID:        patientID,
		Period:           period,
		PeriodStart:      start,
		PeriodEnd:        end,
		OverallRate:      overall,
		MeetsThreshold:   overall >= cfg.MinimumAdherenceThreshold,
		TotalRecords:     len(norm),
		Streaks:          e.ComputeStreaks(norm),
		PerMedication:    perMedication,
		Patterns:         e.DetectPatterns(norm, medications),
		InsightNarrative: options.insightNarrative,
		GeneratedAt:      e.now(),
	}

	if e.cache != nil && options.insightNarrative == nil {
		e.cache.Put(key, report)
	}
	return report
}

// filterRecords scopes a record set to one patient and reporting window.
// Records without a patient ID are kept for callers that pre-filter.
func filterRecords(records []model.IntakeRecord, patientID string, start, end time.Time) []model.IntakeRecord {
	out := make([]model.IntakeRecord, 0, len(records))
	for _, r := range records {
		if patientID != "" && r.PatientID != "" && r.PatientID != patientID {
			continue
		}
		if !start.IsZero() && r.ScheduledTime.Before(start) {
			continue
		}
		if !end.IsZero() && r.ScheduledTime.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sortByScheduledTime(records []model.IntakeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ScheduledTime.Before(records[j].ScheduledTime)
	})
}
