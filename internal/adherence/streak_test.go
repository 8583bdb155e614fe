package adherence

import (
	"testing"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreaks_EmptyInput(t *testing.T) {
	engine := newTestEngine(t)

	data := engine.ComputeStreaks(nil)

	assert.Equal(t, 0, data.CurrentStreak)
	assert.Equal(t, 0, data.LongestStreak)
	assert.False(t, data.Recoverable)
	assert.Empty(t, data.WeeklyStreaks)
	assert.Empty(t, data.MonthlyStreaks)
}

func TestComputeStreaks_AllAdherentDays(t *testing.T) {
	engine := newTestEngine(t)
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // a Monday
	engine.now = func() time.Time { return base.AddDate(0, 0, 10) }

	var records []model.IntakeRecord
	for i := 0; i < 10; i++ {
		scheduled := base.AddDate(0, 0, i)
		records = append(records, makeRecord("", scheduled, timePtr(scheduled.Add(5*time.Minute))))
	}

	data := engine.ComputeStreaks(records)

	assert.Equal(t, 10, data.CurrentStreak)
	assert.Equal(t, 10, data.LongestStreak)
	require.NotNil(t, data.StreakStartDate)
	assert.Equal(t, base.Truncate(24*time.Hour), *data.StreakStartDate)
	require.NotNil(t, data.LongestStreakDates)
	assert.Equal(t, 9, int(data.LongestStreakDates.End.Sub(data.LongestStreakDates.Start).Hours()/24))
	assert.False(t, data.Recoverable)
}

func TestComputeStreaks_MissedDayResetsCurrentStreak(t *testing.T) {
	engine := newTestEngine(t)
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base.AddDate(0, 0, 9) }

	// 5 adherent days, one missed day, 3 adherent days.
	var records []model.IntakeRecord
	for i := 0; i < 9; i++ {
		scheduled := base.AddDate(0, 0, i)
		if i == 5 {
			records = append(records, makeRecord("", scheduled, nil))
			continue
		}
		records = append(records, makeRecord("", scheduled, timePtr(scheduled)))
	}

	data := engine.ComputeStreaks(records)

	assert.Equal(t, 3, data.CurrentStreak)
	// The break contributes to the longest streak only via the run
	// before it.
	assert.Equal(t, 5, data.LongestStreak)
	require.NotNil(t, data.LongestStreakDates)
	assert.Equal(t, base.Truncate(24*time.Hour), data.LongestStreakDates.Start)
}

func TestComputeStreaks_SingleMissedDoseBreaksDay(t *testing.T) {
	engine := newTestEngine(t)
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base.AddDate(0, 0, 3) }

	day := base
	records := []model.IntakeRecord{
		makeRecord("a", day, timePtr(day)),
		makeRecord("b", day.Add(12*time.Hour), nil), // evening dose missed
		makeRecord("c", day.AddDate(0, 0, 1), timePtr(day.AddDate(0, 0, 1))),
	}

	data := engine.ComputeStreaks(records)

	assert.Equal(t, 1, data.CurrentStreak)
	assert.Equal(t, 1, data.LongestStreak)
}

func TestComputeStreaks_RecoverableWithinWindow(t *testing.T) {
	engine := newTestEngine(t)
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// 7 adherent days; today's dose is unmarked and its scheduled time
	// was 2 hours ago.
	var records []model.IntakeRecord
	for i := 0; i < 7; i++ {
		scheduled := base.AddDate(0, 0, i)
		records = append(records, makeRecord("", scheduled, timePtr(scheduled.Add(5*time.Minute))))
	}
	today := base.AddDate(0, 0, 7)
	records = append(records, makeRecord("today", today, nil))
	engine.now = func() time.Time { return today.Add(2 * time.Hour) }

	data := engine.ComputeStreaks(records)

	assert.Equal(t, 7, data.CurrentStreak)
	assert.True(t, data.Recoverable)
	require.NotNil(t, data.RecoveryWindowHours)
	assert.InDelta(t, 22.0, *data.RecoveryWindowHours, 0.01)
}

func TestComputeStreaks_BreakOutsideWindowEndsStreak(t *testing.T) {
	engine := newTestEngine(t)
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	var records []model.IntakeRecord
	for i := 0; i < 7; i++ {
		scheduled := base.AddDate(0, 0, i)
		records = append(records, makeRecord("", scheduled, timePtr(scheduled)))
	}
	missedDay := base.AddDate(0, 0, 7)
	records = append(records, makeRecord("missed", missedDay, nil))
	engine.now = func() time.Time { return missedDay.Add(30 * time.Hour) }

	data := engine.ComputeStreaks(records)

	assert.Equal(t, 0, data.CurrentStreak)
	assert.False(t, data.Recoverable)
	assert.Nil(t, data.RecoveryWindowHours)
	assert.Equal(t, 7, data.LongestStreak)
}

func TestComputeStreaks_WeeklyAndMonthlyBuckets(t *testing.T) {
	engine := newTestEngine(t)
	// Monday March 2nd through Sunday March 15th: two full ISO weeks.
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base.AddDate(0, 0, 14) }

	var records []model.IntakeRecord
	for i := 0; i < 14; i++ {
		scheduled := base.AddDate(0, 0, i)
		// Miss Wednesday of the second week.
		if i == 9 {
			records = append(records, makeRecord("", scheduled, nil))
			continue
		}
		records = append(records, makeRecord("", scheduled, timePtr(scheduled)))
	}

	data := engine.ComputeStreaks(records)

	// Week one is all adherent; week two breaks on Wednesday, leaving
	// the Thursday-to-Sunday run as its best.
	assert.Equal(t, []int{7, 4}, data.WeeklyStreaks)
	// Everything falls in March, whose best run spans the break-free
	// first nine days.
	assert.Equal(t, []int{9}, data.MonthlyStreaks)
}

func TestComputeStreaks_AdjustedDosesKeepDayAdherent(t *testing.T) {
	engine := newTestEngine(t)
	base := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base.AddDate(0, 0, 2) }

	records := []model.IntakeRecord{
		{
			ScheduledTime:   base,
			TakenTime:       timePtr(base.Add(2 * time.Hour)),
			CulturalContext: &model.CulturalContext{PrayerName: stringPtr("isha")},
		},
		makeRecord("", base.AddDate(0, 0, 1), timePtr(base.AddDate(0, 0, 1))),
	}

	data := engine.ComputeStreaks(records)

	assert.Equal(t, 2, data.CurrentStreak)
	assert.Equal(t, 2, data.LongestStreak)
}
