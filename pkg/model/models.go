package model

import "time"

// IntakeStatus represents the adherence classification of a single dose
type IntakeStatus string

const (
	IntakeStatusOnTime   IntakeStatus = "on_time"
	IntakeStatusLate     IntakeStatus = "late"
	IntakeStatusEarly    IntakeStatus = "early"
	IntakeStatusMissed   IntakeStatus = "missed"
	IntakeStatusAdjusted IntakeStatus = "adjusted"
)

// MealPreference represents a meal-timing preference tied to a dose
type MealPreference string

const (
	MealPreferenceBefore MealPreference = "before_meal"
	MealPreferenceWith   MealPreference = "with_meal"
	MealPreferenceAfter  MealPreference = "after_meal"
)

// CulturalContext annotates an intake record with religious or cultural
// circumstances that may excuse a deviation from the nominal schedule
type CulturalContext struct {
	PrayerName       *string         `json:"prayer_name,omitempty"`
	IsFastingPeriod  bool            `json:"is_fasting_period"`
	FestivalName     *string         `json:"festival_name,omitempty"`
	MealPreference   *MealPreference `json:"meal_preference,omitempty"`
	FamilyReported   bool            `json:"family_reported"`
	ReportedByMember *string         `json:"reported_by_member,omitempty"`
}

// IntakeRecord represents one scheduled dose occurrence
type IntakeRecord struct {
	ID              string           `json:"id"`
	MedicationID    string           `json:"medication_id"`
	PatientID       string           `json:"patient_id"`
	ScheduledTime   time.Time        `json:"scheduled_time"`
	TakenTime       *time.Time       `json:"taken_time,omitempty"`
	Status          IntakeStatus     `json:"status"`
	Score           float64          `json:"score"`
	DelayMinutes    *int             `json:"delay_minutes,omitempty"`
	CulturalContext *CulturalContext `json:"cultural_context,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Taken reports whether the dose was actually taken
func (r *IntakeRecord) Taken() bool {
	return r.TakenTime != nil
}

// Medication represents a prescribed medication with cultural metadata
type Medication struct {
	ID                      string     `json:"id"`
	PatientID               string     `json:"patient_id"`
	Name                    string     `json:"name"`
	Dosage                  string     `json:"dosage"`
	Frequency               string     `json:"frequency"`
	ScheduleTimes           []string   `json:"schedule_times,omitempty"` // "HH:MM" local times
	StartDate               time.Time  `json:"start_date"`
	EndDate                 *time.Time `json:"end_date,omitempty"`
	Notes                   *string    `json:"notes,omitempty"`
	Active                  bool       `json:"active"`
	TakeWithFood            bool       `json:"take_with_food"`
	AvoidDuringFasting      bool       `json:"avoid_during_fasting"`
	TraditionalAlternatives []string   `json:"traditional_alternatives,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// DateRange represents an inclusive calendar date range
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StreakData represents streak statistics derived from a record set
type StreakData struct {
	CurrentStreak       int        `json:"current_streak"`
	LongestStreak       int        `json:"longest_streak"`
	StreakStartDate     *time.Time `json:"streak_start_date,omitempty"`
	LongestStreakDates  *DateRange `json:"longest_streak_dates,omitempty"`
	WeeklyStreaks       []int      `json:"weekly_streaks"`
	MonthlyStreaks      []int      `json:"monthly_streaks"`
	Recoverable         bool       `json:"recoverable"`
	RecoveryWindowHours *float64   `json:"recovery_window_hours,omitempty"`
}

// PatternType identifies a detected adherence behavior
type PatternType string

const (
	PatternMorningConsistency PatternType = "morning_consistency"
	PatternEveningMissed      PatternType = "evening_missed"
	PatternWeekendDecline     PatternType = "weekend_decline"
	PatternPrayerTimeConflict PatternType = "prayer_time_conflict"
	PatternFastingAdjustment  PatternType = "fasting_adjustment"
	PatternFestivalPeriod     PatternType = "festival_period_pattern"
	PatternImprovementTrend   PatternType = "improvement_trend"
	PatternDeclineTrend       PatternType = "decline_trend"
)

// AdherencePattern represents a recurring behavioral finding with
// confidence and recommended interventions
type AdherencePattern struct {
	ID                  string      `json:"id"`
	Type                PatternType `json:"type"`
	Confidence          float64     `json:"confidence"`
	Description         string      `json:"description"`
	Occurrences         int         `json:"occurrences"`
	LastOccurred        *time.Time  `json:"last_occurred,omitempty"`
	AffectedMedications []string    `json:"affected_medications"`
	Recommendations     []string    `json:"recommendations"`
	CulturalFactors     []string    `json:"cultural_factors,omitempty"`
}

// TimeAdherence represents adherence quality for one time-of-day slot
type TimeAdherence struct {
	Hour          int     `json:"hour"`
	Minute        int     `json:"minute"`
	AdherenceRate float64 `json:"adherence_rate"`
	TotalDoses    int     `json:"total_doses"`
}

// DailyRate represents the aggregate adherence rate for one calendar day
type DailyRate struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// MedicationAdherenceMetric represents per-medication adherence metrics
type MedicationAdherenceMetric struct {
	MedicationID        string         `json:"medication_id"`
	MedicationName      string         `json:"medication_name"`
	TotalDoses          int            `json:"total_doses"`
	TakenDoses          int            `json:"taken_doses"`
	MissedDoses         int            `json:"missed_doses"`
	LateDoses           int            `json:"late_doses"`
	EarlyDoses          int            `json:"early_doses"`
	AdjustedDoses       int            `json:"adjusted_doses"`
	AverageDelayMinutes float64        `json:"average_delay_minutes"`
	BestTimeAdherence   *TimeAdherence `json:"best_time_adherence,omitempty"`
	WorstTimeAdherence  *TimeAdherence `json:"worst_time_adherence,omitempty"`
	Trends              []DailyRate    `json:"trends"`
	AdherenceRate       float64        `json:"adherence_rate"`
}

// ProgressMetrics represents the combined adherence report for a patient
// over a reporting period, consumed by the presentation layer
type ProgressMetrics struct {
	PatientID        string                      `json:"patient_id"`
	Period           string                      `json:"period"`
	PeriodStart      time.Time                   `json:"period_start"`
	PeriodEnd        time.Time                   `json:"period_end"`
	OverallRate      float64                     `json:"overall_rate"`
	MeetsThreshold   bool                        `json:"meets_threshold"`
	TotalRecords     int                         `json:"total_records"`
	Streaks          StreakData                  `json:"streaks"`
	PerMedication    []MedicationAdherenceMetric `json:"per_medication"`
	Patterns         []AdherencePattern          `json:"patterns"`
	InsightNarrative *string                     `json:"insight_narrative,omitempty"`
	GeneratedAt      time.Time                   `json:"generated_at"`
}

// Report represents a generated adherence report document
type Report struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	DateRangeStart time.Time `json:"date_range_start"`
	DateRangeEnd   time.Time `json:"date_range_end"`
	FilePath       string    `json:"file_path"`
	GeneratedAt    time.Time `json:"generated_at"`
	CreatedAt      time.Time `json:"created_at"`
}
