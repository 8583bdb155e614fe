package adherence

import (
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
)

// dayOutcome aggregates every record scheduled on one calendar day
type dayOutcome struct {
	date     time.Time // midnight, local to the record's own zone
	adherent bool
	// firstMiss is the scheduled time of the earliest missed dose on a
	// non-adherent day; used to anchor the recovery window
	firstMiss time.Time
}

// ComputeStreaks walks the record set per calendar day and derives streak
// statistics. A day is adherent only when no dose scheduled that day was
// missed; a single missed dose breaks the day. Days without any scheduled
// dose neither extend nor break a streak.
func (e *Engine) ComputeStreaks(records []model.IntakeRecord) model.StreakData {
	cfg := e.GetConfig()
	data := model.StreakData{
		WeeklyStreaks:  []int{},
		MonthlyStreaks: []int{},
	}
	if len(records) == 0 {
		return data
	}

	days := collapseDays(normalized(cfg, records))

	// Longest adherent run anywhere in the set, with its date range.
	runStart := -1
	for i := 0; i <= len(days); i++ {
		adherent := i < len(days) && days[i].adherent
		if adherent {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			length := i - runStart
			if length > data.LongestStreak {
				data.LongestStreak = length
				start := days[runStart].date
				end := days[i-1].date
				data.LongestStreakDates = &model.DateRange{Start: start, End: end}
			}
			runStart = -1
		}
	}

	// Current streak walks backward from the most recent day with data.
	// A non-adherent last day that is still inside the recovery window
	// keeps the preceding run alive; outside the window the streak is 0.
	last := days[len(days)-1]
	countFrom := len(days) - 1
	if !last.adherent {
		countFrom = len(days) - 2
		remaining := float64(cfg.RecoveryWindowHours) - e.now().Sub(last.firstMiss).Hours()
		if remaining > 0 {
			data.Recoverable = true
			data.RecoveryWindowHours = &remaining
		} else {
			countFrom = -1
		}
	}
	for i := countFrom; i >= 0 && days[i].adherent; i-- {
		data.CurrentStreak++
		start := days[i].date
		data.StreakStartDate = &start
	}

	data.WeeklyStreaks = bucketRuns(days, func(d time.Time) (int, int) {
		year, week := d.ISOWeek()
		return year, week
	})
	data.MonthlyStreaks = bucketRuns(days, func(d time.Time) (int, int) {
		return d.Year(), int(d.Month())
	})

	return data
}

// collapseDays reduces chronologically sorted records to one outcome per
// calendar day, in order
func collapseDays(records []model.IntakeRecord) []dayOutcome {
	var days []dayOutcome
	for _, r := range records {
		date := time.Date(r.ScheduledTime.Year(), r.ScheduledTime.Month(), r.ScheduledTime.Day(), 0, 0, 0, 0, r.ScheduledTime.Location())
		if len(days) == 0 || !days[len(days)-1].date.Equal(date) {
			days = append(days, dayOutcome{date: date, adherent: true})
		}
		day := &days[len(days)-1]
		if r.Status == model.IntakeStatusMissed {
			if day.adherent || r.ScheduledTime.Before(day.firstMiss) {
				day.firstMiss = r.ScheduledTime
			}
			day.adherent = false
		}
	}
	return days
}

// bucketRuns returns, per calendar bucket in chronological order, the
// longest adherent run of days inside that bucket
func bucketRuns(days []dayOutcome, bucket func(time.Time) (int, int)) []int {
	runs := []int{}
	var curYear, curPart, run, best int
	started := false

	flush := func() {
		if started {
			if run > best {
				best = run
			}
			runs = append(runs, best)
		}
	}

	for _, day := range days {
		year, part := bucket(day.date)
		if !started || year != curYear || part != curPart {
			flush()
			curYear, curPart = year, part
			run, best = 0, 0
			started = true
		}
		if day.adherent {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	flush()
	return runs
}
