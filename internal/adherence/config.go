package adherence

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a configuration update is rejected.
// The engine keeps its previous configuration in that case.
var ErrInvalidConfig = errors.New("invalid adherence configuration")

// Config holds the tuning knobs of the adherence engine
type Config struct {
	// OnTimeWindowMinutes is the grace window after the scheduled time
	// within which a dose still counts as on time
	OnTimeWindowMinutes int `json:"on_time_window_minutes"`
	// LateWindowHours is the ceiling beyond which a late dose becomes missed
	LateWindowHours int `json:"late_window_hours"`
	// CulturalAdjustmentEnabled toggles prayer/fasting/festival accommodation
	CulturalAdjustmentEnabled bool `json:"cultural_adjustment_enabled"`
	// MinimumAdherenceThreshold is used for downstream reporting only,
	// never for scoring
	MinimumAdherenceThreshold float64 `json:"minimum_adherence_threshold"`
	// RecoveryWindowHours bounds how long a broken streak stays recoverable
	RecoveryWindowHours int `json:"recovery_window_hours"`
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		OnTimeWindowMinutes:       30,
		LateWindowHours:           4,
		CulturalAdjustmentEnabled: true,
		MinimumAdherenceThreshold: 80,
		RecoveryWindowHours:       24,
	}
}

// Validate checks that all windows are usable
func (c Config) Validate() error {
	if c.OnTimeWindowMinutes < 0 {
		return fmt.Errorf("%w: on-time window must not be negative, got %d", ErrInvalidConfig, c.OnTimeWindowMinutes)
	}
	if c.LateWindowHours <= 0 {
		return fmt.Errorf("%w: late window must be positive, got %d", ErrInvalidConfig, c.LateWindowHours)
	}
	if c.OnTimeWindowMinutes >= c.LateWindowHours*60 {
		return fmt.Errorf("%w: on-time window (%d min) must be inside the late window (%d h)", ErrInvalidConfig, c.OnTimeWindowMinutes, c.LateWindowHours)
	}
	if c.MinimumAdherenceThreshold < 0 || c.MinimumAdherenceThreshold > 100 {
		return fmt.Errorf("%w: adherence threshold must be in [0,100], got %g", ErrInvalidConfig, c.MinimumAdherenceThreshold)
	}
	if c.RecoveryWindowHours <= 0 {
		return fmt.Errorf("%w: recovery window must be positive, got %d", ErrInvalidConfig, c.RecoveryWindowHours)
	}
	return nil
}

// ConfigUpdate is a partial configuration change; nil fields keep their
// current value
type ConfigUpdate struct {
	OnTimeWindowMinutes       *int     `json:"on_time_window_minutes,omitempty"`
	LateWindowHours           *int     `json:"late_window_hours,omitempty"`
	CulturalAdjustmentEnabled *bool    `json:"cultural_adjustment_enabled,omitempty"`
	MinimumAdherenceThreshold *float64 `json:"minimum_adherence_threshold,omitempty"`
	RecoveryWindowHours       *int     `json:"recovery_window_hours,omitempty"`
}

// apply merges the update onto a copy of the current configuration
func (u ConfigUpdate) apply(current Config) Config {
	next := current
	if u.OnTimeWindowMinutes != nil {
		next.OnTimeWindowMinutes = *u.OnTimeWindowMinutes
	}
	if u.LateWindowHours != nil {
		next.LateWindowHours = *u.LateWindowHours
	}
	if u.CulturalAdjustmentEnabled != nil {
		next.CulturalAdjustmentEnabled = *u.CulturalAdjustmentEnabled
	}
	if u.MinimumAdherenceThreshold != nil {
		next.MinimumAdherenceThreshold = *u.MinimumAdherenceThreshold
	}
	if u.RecoveryWindowHours != nil {
		next.RecoveryWindowHours = *u.RecoveryWindowHours
	}
	return next
}
