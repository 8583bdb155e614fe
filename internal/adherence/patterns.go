package adherence

import (
	"fmt"
	"sort"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/google/uuid"
)

// Detection thresholds. Each detector is an independent heuristic; a
// bucket must be materially different from its baseline with a minimum
// sample before a pattern fires.
const (
	minBucketSize     = 10
	minWeekendSample  = 6
	minPrayerSample   = 5
	minFastingSample  = 5
	minFestivalSample = 3
	minTrendSample    = 10

	materialGapPoints    = 20.0
	trendDeltaPoints     = 15.0
	prayerMissedFraction = 0.4
	fastingDelayMinutes  = 30.0
)

// patternDetector inspects a normalized, chronologically sorted record
// set and either returns a finding or nil. Detectors are independent;
// several may fire on the same record set.
type patternDetector func(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern

// detectors is the registry of heuristics run by DetectPatterns. New
// pattern types plug in here without touching aggregation code.
var detectors = []patternDetector{
	detectMorningConsistency,
	detectEveningMissed,
	detectWeekendDecline,
	detectPrayerTimeConflict,
	detectFastingAdjustment,
	detectFestivalPeriod,
	detectAdherenceTrend,
}

// DetectPatterns scans the record set for recurring behavioral patterns
// and returns typed findings with confidence scores and recommendations
func (e *Engine) DetectPatterns(records []model.IntakeRecord, medications []model.Medication) []model.AdherencePattern {
	cfg := e.GetConfig()
	norm := normalized(cfg, records)

	patterns := []model.AdherencePattern{}
	for _, detect := range detectors {
		if p := detect(norm, medications); p != nil {
			p.ID = uuid.New().String()
			patterns = append(patterns, *p)
		}
	}
	return patterns
}

func detectMorningConsistency(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern {
	morning := scheduledBetween(records, 0, 12)
	evening := scheduledBetween(records, 18, 24)
	if len(morning) < minBucketSize || len(evening) == 0 {
		return nil
	}
	gap := meanScore(morning) - meanScore(evening)
	if gap < materialGapPoints {
		return nil
	}
	return &model.AdherencePattern{
		Type:                model.PatternMorningConsistency,
		Confidence:          confidenceScore(len(morning), gap),
		Description:         fmt.Sprintf("Morning doses score %.0f points higher than evening doses", gap),
		Occurrences:         len(morning),
		LastOccurred:        latestScheduled(morning),
		AffectedMedications: affectedMedications(morning),
		Recommendations: []string{
			"Anchor new medications to the existing morning routine",
			"Consider asking the prescriber whether evening doses can move to the morning",
		},
	}
}

func detectEveningMissed(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern {
	morning := scheduledBetween(records, 0, 12)
	evening := scheduledBetween(records, 18, 24)
	if len(evening) < minBucketSize || len(morning) == 0 {
		return nil
	}
	gap := meanScore(morning) - meanScore(evening)
	if gap < materialGapPoints {
		return nil
	}
	return &model.AdherencePattern{
		Type:                model.PatternEveningMissed,
		Confidence:          confidenceScore(len(evening), gap),
		Description:         fmt.Sprintf("Evening doses fall %.0f points behind morning doses", gap),
		Occurrences:         len(evening),
		LastOccurred:        latestScheduled(evening),
		AffectedMedications: affectedMedications(evening),
		Recommendations: []string{
			"Set an evening reminder tied to a fixed routine such as dinner",
			"Ask a family member to confirm the evening dose",
		},
	}
}

func detectWeekendDecline(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern {
	var weekend, weekday []model.IntakeRecord
	for _, r := range records {
		switch r.ScheduledTime.Weekday() {
		case time.Saturday, time.Sunday:
			weekend = append(weekend, r)
		default:
			weekday = append(weekday, r)
		}
	}
	if len(weekend) < minWeekendSample || len(weekday) == 0 {
		return nil
	}
	gap := meanScore(weekday) - meanScore(weekend)
	if gap < materialGapPoints {
		return nil
	}
	return &model.AdherencePattern{
		Type:                model.PatternWeekendDecline,
		Confidence:          confidenceScore(len(weekend), gap),
		Description:         fmt.Sprintf("Weekend adherence drops %.0f points below weekdays", gap),
		Occurrences:         len(weekend),
		LastOccurred:        latestScheduled(weekend),
		AffectedMedications: affectedMedications(weekend),
		Recommendations: []string{
			"Keep weekend dose times aligned with the weekday schedule",
			"Prepare a weekend pill organizer on Friday",
		},
	}
}

func detectPrayerTimeConflict(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern {
	var prayer []model.IntakeRecord
	notOnTime := 0
	for _, r := range records {
		if r.CulturalContext == nil || r.CulturalContext.PrayerName == nil {
			continue
		}
		prayer = append(prayer, r)
		if r.Status != model.IntakeStatusOnTime {
			notOnTime++
		}
	}
	if len(prayer) < minPrayerSample {
		return nil
	}
	fraction := float64(notOnTime) / float64(len(prayer))
	if fraction <= prayerMissedFraction {
		return nil
	}
	return &model.AdherencePattern{
		Type:                model.PatternPrayerTimeConflict,
		Confidence:          confidenceScore(len(prayer), fraction*100),
		Description:         fmt.Sprintf("%d of %d doses scheduled near prayer times were not taken on time", notOnTime, len(prayer)),
		Occurrences:         notOnTime,
		LastOccurred:        latestScheduled(prayer),
		AffectedMedications: affectedMedications(prayer),
		Recommendations: []string{
			"Reschedule affected doses to a buffer shortly after prayer",
			"Use the post-prayer moment as a consistent medication anchor",
		},
		CulturalFactors: []string{"prayer_times"},
	}
}

func detectFastingAdjustment(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern {
	var fasting, baseline []model.IntakeRecord
	for _, r := range records {
		if r.CulturalContext != nil && r.CulturalContext.IsFastingPeriod {
			fasting = append(fasting, r)
		} else {
			baseline = append(baseline, r)
		}
	}
	if len(fasting) < minFastingSample || len(baseline) == 0 {
		return nil
	}
	// Fasting periods show a distinct profile when doses are delayed but
	// still taken: taken rate stays high while delay grows past baseline.
	takenRate := takenFraction(fasting)
	delayGap := meanTakenDelay(fasting) - meanTakenDelay(baseline)
	if takenRate < 0.7 || delayGap < fastingDelayMinutes {
		return nil
	}
	return &model.AdherencePattern{
		Type:                model.PatternFastingAdjustment,
		Confidence:          confidenceScore(len(fasting), delayGap),
		Description:         fmt.Sprintf("Doses during fasting are taken %.0f minutes later than usual but rarely skipped", delayGap),
		Occurrences:         len(fasting),
		LastOccurred:        latestScheduled(fasting),
		AffectedMedications: affectedMedications(fasting),
		Recommendations: []string{
			"Shift fasting-period doses to suhoor or iftar",
			"Review with the prescriber which medications tolerate a fasting delay",
		},
		CulturalFactors: []string{"fasting_period"},
	}
}

func detectFestivalPeriod(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern {
	var festival, baseline []model.IntakeRecord
	names := map[string]bool{}
	for _, r := range records {
		if r.CulturalContext != nil && r.CulturalContext.FestivalName != nil {
			festival = append(festival, r)
			names[normalizeCulturalName(*r.CulturalContext.FestivalName)] = true
		} else {
			baseline = append(baseline, r)
		}
	}
	if len(festival) < minFestivalSample || len(baseline) == 0 {
		return nil
	}
	festivalMissed := missedFraction(festival)
	baselineMissed := missedFraction(baseline)
	if festivalMissed < 0.3 || festivalMissed < 2*baselineMissed {
		return nil
	}
	factors := make([]string, 0, len(names))
	for name := range names {
		factors = append(factors, name)
	}
	sort.Strings(factors)
	return &model.AdherencePattern{
		Type:                model.PatternFestivalPeriod,
		Confidence:          confidenceScore(len(festival), (festivalMissed-baselineMissed)*100),
		Description:         fmt.Sprintf("Missed doses spike to %.0f%% around festival days", festivalMissed*100),
		Occurrences:         len(festival),
		LastOccurred:        latestScheduled(festival),
		AffectedMedications: affectedMedications(festival),
		Recommendations: []string{
			"Plan dose times around festival gatherings in advance",
			"Pack medications when travelling for festivals",
		},
		CulturalFactors: factors,
	}
}

// detectAdherenceTrend compares the earlier half of the window against
// the later half and reports the direction when the delta is material
func detectAdherenceTrend(records []model.IntakeRecord, medications []model.Medication) *model.AdherencePattern {
	if len(records) < minTrendSample {
		return nil
	}
	half := len(records) / 2
	earlier, later := records[:half], records[half:]
	delta := meanScore(later) - meanScore(earlier)

	switch {
	case delta >= trendDeltaPoints:
		return &model.AdherencePattern{
			Type:                model.PatternImprovementTrend,
			Confidence:          confidenceScore(len(records), delta),
			Description:         fmt.Sprintf("Adherence improved by %.0f points over the period", delta),
			Occurrences:         len(later),
			LastOccurred:        latestScheduled(later),
			AffectedMedications: affectedMedications(records),
			Recommendations: []string{
				"Keep the current routine; it is working",
			},
		}
	case delta <= -trendDeltaPoints:
		return &model.AdherencePattern{
			Type:                model.PatternDeclineTrend,
			Confidence:          confidenceScore(len(records), -delta),
			Description:         fmt.Sprintf("Adherence declined by %.0f points over the period", -delta),
			Occurrences:         len(later),
			LastOccurred:        latestScheduled(later),
			AffectedMedications: affectedMedications(records),
			Recommendations: []string{
				"Review recent routine changes with the patient",
				"Consider additional reminders or family support",
			},
		}
	default:
		return nil
	}
}

// confidenceScore grows with sample size and effect size, capped at 1.
// Effect is expressed in score points (or percentage points).
func confidenceScore(sample int, effect float64) float64 {
	sampleFactor := float64(sample) / 30
	if sampleFactor > 1 {
		sampleFactor = 1
	}
	effectFactor := effect / 40
	if effectFactor > 1 {
		effectFactor = 1
	}
	if effectFactor < 0 {
		effectFactor = 0
	}
	confidence := 0.3 + 0.4*sampleFactor + 0.3*effectFactor
	if confidence > 1 {
		return 1
	}
	return confidence
}

func scheduledBetween(records []model.IntakeRecord, fromHour, toHour int) []model.IntakeRecord {
	var out []model.IntakeRecord
	for _, r := range records {
		h := r.ScheduledTime.Hour()
		if h >= fromHour && h < toHour {
			out = append(out, r)
		}
	}
	return out
}

func meanScore(records []model.IntakeRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Score
	}
	return sum / float64(len(records))
}

func takenFraction(records []model.IntakeRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	taken := 0
	for _, r := range records {
		if r.Taken() {
			taken++
		}
	}
	return float64(taken) / float64(len(records))
}

func missedFraction(records []model.IntakeRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	missed := 0
	for _, r := range records {
		if r.Status == model.IntakeStatusMissed {
			missed++
		}
	}
	return float64(missed) / float64(len(records))
}

// meanTakenDelay averages the raw taken-vs-scheduled delta in minutes
// over taken doses, so adjusted doses still contribute their real delay
func meanTakenDelay(records []model.IntakeRecord) float64 {
	var sum float64
	var count int
	for _, r := range records {
		if r.TakenTime == nil {
			continue
		}
		sum += r.TakenTime.Sub(r.ScheduledTime).Minutes()
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func latestScheduled(records []model.IntakeRecord) *time.Time {
	if len(records) == 0 {
		return nil
	}
	latest := records[0].ScheduledTime
	for _, r := range records[1:] {
		if r.ScheduledTime.After(latest) {
			latest = r.ScheduledTime
		}
	}
	return &latest
}

func affectedMedications(records []model.IntakeRecord) []string {
	seen := map[string]bool{}
	for _, r := range records {
		if r.MedicationID != "" {
			seen[r.MedicationID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
