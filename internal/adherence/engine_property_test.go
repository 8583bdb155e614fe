package adherence

import (
	"testing"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func newPropertyEngine() *Engine {
	engine, err := NewEngine(DefaultConfig(), nil, zap.NewNop())
	if err != nil {
		panic(err)
	}
	return engine
}

// Feature: adherence-engine, Property 1: Late Score Monotonicity
func TestProperty_LateScoreMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine := newPropertyEngine()
	scheduled := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	properties.Property("increasing delay never increases a late score", prop.ForAll(
		func(delay, extra int) bool {
			shorter := engine.Classify(scheduled, timePtr(scheduled.Add(time.Duration(delay)*time.Minute)), nil)
			longer := engine.Classify(scheduled, timePtr(scheduled.Add(time.Duration(delay+extra)*time.Minute)), nil)
			return longer.Score <= shorter.Score
		},
		gen.IntRange(31, 239),
		gen.IntRange(0, 400),
	))

	properties.TestingRun(t)
}

// Feature: adherence-engine, Property 2: Missed Means Never Taken
func TestProperty_MissedMatchesAbsentTakenTime(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine := newPropertyEngine()
	scheduled := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	properties.Property("a record without a taken time is always missed", prop.ForAll(
		func(dayOffset int) bool {
			record := model.IntakeRecord{ScheduledTime: scheduled.AddDate(0, 0, dayOffset)}
			engine.Reclassify(&record)
			return record.Status == model.IntakeStatusMissed && record.Score == 0 && record.DelayMinutes == nil
		},
		gen.IntRange(-365, 365),
	))

	properties.Property("a taken record inside the late window is never missed", prop.ForAll(
		func(deltaMinutes int) bool {
			record := model.IntakeRecord{
				ScheduledTime: scheduled,
				TakenTime:     timePtr(scheduled.Add(time.Duration(deltaMinutes) * time.Minute)),
			}
			engine.Reclassify(&record)
			return record.Status != model.IntakeStatusMissed
		},
		gen.IntRange(-240, 240),
	))

	properties.TestingRun(t)
}

// Feature: adherence-engine, Property 3: Aggregate Rate Bounds
func TestProperty_AggregateRateBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine := newPropertyEngine()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	properties.Property("aggregate rate stays within [0,100]", prop.ForAll(
		func(deltas []int) bool {
			var records []model.IntakeRecord
			for i, delta := range deltas {
				scheduled := base.AddDate(0, 0, i)
				var taken *time.Time
				if delta >= -720 {
					taken = timePtr(scheduled.Add(time.Duration(delta) * time.Minute))
				}
				records = append(records, makeRecord("", scheduled, taken))
			}
			rate := engine.AggregateRate(records)
			return rate >= 0 && rate <= 100
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t)
}

// Feature: adherence-engine, Property 4: Cultural Override Precedence
func TestProperty_CulturalOverridePrecedence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine := newPropertyEngine()
	scheduled := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	prayers := []string{"fajr", "dhuhr", "asr", "maghrib", "isha"}

	properties.Property("any accommodated dose taken within the grace window is adjusted", prop.ForAll(
		func(deltaMinutes int, prayerIndex int, fasting bool) bool {
			cc := &model.CulturalContext{IsFastingPeriod: fasting}
			if !fasting {
				cc.PrayerName = stringPtr(prayers[prayerIndex%len(prayers)])
			}
			result := engine.Classify(scheduled, timePtr(scheduled.Add(time.Duration(deltaMinutes)*time.Minute)), cc)
			return result.Status == model.IntakeStatusAdjusted && result.Score == 90 && result.DelayMinutes == 0
		},
		gen.IntRange(-culturalGraceMinutes, culturalGraceMinutes),
		gen.IntRange(0, 4),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Feature: adherence-engine, Property 5: Streak Continuity
func TestProperty_StreakContinuity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	properties.Property("a missed day resets the current streak to the run after it", prop.ForAll(
		func(before, after int) bool {
			engine := newPropertyEngine()

			var records []model.IntakeRecord
			day := 0
			for i := 0; i < before; i++ {
				scheduled := base.AddDate(0, 0, day)
				records = append(records, makeRecord("", scheduled, timePtr(scheduled)))
				day++
			}
			records = append(records, makeRecord("", base.AddDate(0, 0, day), nil))
			day++
			for i := 0; i < after; i++ {
				scheduled := base.AddDate(0, 0, day)
				records = append(records, makeRecord("", scheduled, timePtr(scheduled)))
				day++
			}
			engine.now = func() time.Time { return base.AddDate(0, 0, day) }

			data := engine.ComputeStreaks(records)
			longest := before
			if after > longest {
				longest = after
			}
			return data.CurrentStreak == after && data.LongestStreak == longest
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}
