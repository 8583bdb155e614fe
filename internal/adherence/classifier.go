package adherence

import (
	"strings"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
)

// culturalGraceMinutes bounds how far from the scheduled time a dose may
// be taken and still qualify for a cultural accommodation
const culturalGraceMinutes = 360

// Late-score calibration anchors: 60 minutes late scores 70, 150 minutes
// late scores 30. The decay is piecewise linear through these points and
// bottoms out at lateScoreFloor just before the late-window ceiling.
const (
	lateAnchor1Minutes = 60.0
	lateAnchor1Score   = 70.0
	lateAnchor2Minutes = 150.0
	lateAnchor2Score   = 30.0
	lateScoreFloor     = 20.0

	earlyScoreFloor = 70.0
	adjustedScore   = 90.0
)

// recognizedPrayers are the daily prayer names that qualify for a
// prayer-time accommodation
var recognizedPrayers = map[string]bool{
	"fajr":    true,
	"dhuhr":   true,
	"asr":     true,
	"maghrib": true,
	"isha":    true,
	"jummah":  true,
}

// recognizedFestivals are the festival periods that qualify for a
// festival accommodation
var recognizedFestivals = map[string]bool{
	"ramadan":      true,
	"eid-al-fitr":  true,
	"eid-al-adha":  true,
	"muharram":     true,
	"diwali":       true,
	"holi":         true,
	"navratri":     true,
	"karva-chauth": true,
	"vesak":        true,
}

// Classification is the classifier output for a single dose
type Classification struct {
	Status model.IntakeStatus `json:"status"`
	Score  float64            `json:"score"`
	// DelayMinutes is meaningful only for on_time, late and early doses.
	// On-time doses always report zero delay.
	DelayMinutes int `json:"delay_minutes"`
}

// Classify derives the adherence status and score for one dose. Cultural
// accommodation is a first-class override: when enabled and the context
// names a recognized prayer, fasting period or festival, a dose taken
// within the cultural grace window is adjusted regardless of the raw
// time delta.
func (e *Engine) Classify(scheduledTime time.Time, takenTime *time.Time, culturalContext *model.CulturalContext) Classification {
	cfg := e.GetConfig()
	return classify(cfg, scheduledTime, takenTime, culturalContext)
}

func classify(cfg Config, scheduledTime time.Time, takenTime *time.Time, cc *model.CulturalContext) Classification {
	if cfg.CulturalAdjustmentEnabled && takenTime != nil && qualifiesForAccommodation(cc) {
		delta := takenTime.Sub(scheduledTime).Minutes()
		if delta < 0 {
			delta = -delta
		}
		if delta <= culturalGraceMinutes {
			return Classification{Status: model.IntakeStatusAdjusted, Score: adjustedScore, DelayMinutes: 0}
		}
	}

	if takenTime == nil {
		return Classification{Status: model.IntakeStatusMissed, Score: 0, DelayMinutes: 0}
	}

	deltaMinutes := takenTime.Sub(scheduledTime).Minutes()
	lateCeiling := float64(cfg.LateWindowHours) * 60

	switch {
	case deltaMinutes < 0:
		return Classification{
			Status:       model.IntakeStatusEarly,
			Score:        earlyScore(-deltaMinutes, lateCeiling),
			DelayMinutes: int(deltaMinutes),
		}
	case deltaMinutes <= float64(cfg.OnTimeWindowMinutes):
		// Within the grace window the dose is fully on time and
		// reports zero delay.
		return Classification{Status: model.IntakeStatusOnTime, Score: 100, DelayMinutes: 0}
	case deltaMinutes <= lateCeiling:
		return Classification{
			Status:       model.IntakeStatusLate,
			Score:        lateScore(deltaMinutes, float64(cfg.OnTimeWindowMinutes), lateCeiling),
			DelayMinutes: int(deltaMinutes),
		}
	default:
		return Classification{Status: model.IntakeStatusMissed, Score: 0, DelayMinutes: 0}
	}
}

// qualifiesForAccommodation reports whether the cultural context names a
// recognized accommodation
func qualifiesForAccommodation(cc *model.CulturalContext) bool {
	if cc == nil {
		return false
	}
	if cc.IsFastingPeriod {
		return true
	}
	if cc.PrayerName != nil && recognizedPrayers[normalizeCulturalName(*cc.PrayerName)] {
		return true
	}
	if cc.FestivalName != nil && recognizedFestivals[normalizeCulturalName(*cc.FestivalName)] {
		return true
	}
	return false
}

func normalizeCulturalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	return strings.ReplaceAll(name, "_", "-")
}

// earlyScore decays from 100 toward the early floor as the dose is taken
// further ahead of schedule, bounded to [70,100]
func earlyScore(minutesEarly, lateCeiling float64) float64 {
	if lateCeiling <= 0 {
		return earlyScoreFloor
	}
	score := 100 - (100-earlyScoreFloor)*(minutesEarly/lateCeiling)
	if score < earlyScoreFloor {
		return earlyScoreFloor
	}
	return score
}

// lateScore is piecewise linear through the calibration anchors and
// strictly non-increasing in the delay
func lateScore(delayMinutes, onTimeWindow, lateCeiling float64) float64 {
	switch {
	case delayMinutes <= lateAnchor1Minutes:
		if onTimeWindow >= lateAnchor1Minutes {
			return lateAnchor1Score
		}
		return 100 - (100-lateAnchor1Score)*(delayMinutes-onTimeWindow)/(lateAnchor1Minutes-onTimeWindow)
	case delayMinutes <= lateAnchor2Minutes:
		return lateAnchor1Score - (lateAnchor1Score-lateAnchor2Score)*(delayMinutes-lateAnchor1Minutes)/(lateAnchor2Minutes-lateAnchor1Minutes)
	default:
		if lateCeiling <= lateAnchor2Minutes {
			return lateAnchor2Score
		}
		return lateAnchor2Score - (lateAnchor2Score-lateScoreFloor)*(delayMinutes-lateAnchor2Minutes)/(lateCeiling-lateAnchor2Minutes)
	}
}

// Reclassify recomputes status, score and delay for a record from its
// raw timestamps. Stored status is never trusted; the classifier is the
// single source of truth.
func (e *Engine) Reclassify(record *model.IntakeRecord) {
	cfg := e.GetConfig()
	reclassify(cfg, record)
}

func reclassify(cfg Config, record *model.IntakeRecord) {
	c := classify(cfg, record.ScheduledTime, record.TakenTime, record.CulturalContext)
	record.Status = c.Status
	record.Score = c.Score
	switch c.Status {
	case model.IntakeStatusOnTime, model.IntakeStatusLate, model.IntakeStatusEarly:
		delay := c.DelayMinutes
		record.DelayMinutes = &delay
	default:
		record.DelayMinutes = nil
	}
}

// normalized returns reclassified copies of the records, sorted
// chronologically by scheduled time
func normalized(cfg Config, records []model.IntakeRecord) []model.IntakeRecord {
	out := make([]model.IntakeRecord, len(records))
	copy(out, records)
	for i := range out {
		reclassify(cfg, &out[i])
	}
	sortByScheduledTime(out)
	return out
}
