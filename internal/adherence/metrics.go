package adherence

import (
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
)

// MedicationMetrics builds the per-medication adherence report: status
// counts, average delay, best/worst time-of-day slots and the daily
// trend series. Records belonging to other medications are ignored.
func (e *Engine) MedicationMetrics(medication model.Medication, records []model.IntakeRecord) model.MedicationAdherenceMetric {
	cfg := e.GetConfig()

	var scoped []model.IntakeRecord
	for _, r := range records {
		if r.MedicationID == "" || r.MedicationID == medication.ID {
			scoped = append(scoped, r)
		}
	}
	scoped = normalized(cfg, scoped)

	metric := model.MedicationAdherenceMetric{
		MedicationID:   medication.ID,
		MedicationName: medication.Name,
		TotalDoses:     len(scoped),
		Trends:         []model.DailyRate{},
	}
	if len(scoped) == 0 {
		return metric
	}

	var delaySum, delayCount float64
	hourScores := map[int][]float64{}

	for _, r := range scoped {
		switch r.Status {
		case model.IntakeStatusMissed:
			metric.MissedDoses++
		case model.IntakeStatusLate:
			metric.TakenDoses++
			metric.LateDoses++
		case model.IntakeStatusEarly:
			metric.TakenDoses++
			metric.EarlyDoses++
		case model.IntakeStatusAdjusted:
			metric.TakenDoses++
			metric.AdjustedDoses++
		default:
			metric.TakenDoses++
		}

		// Average delay covers only records with a defined delay;
		// missed and adjusted doses carry none.
		if r.DelayMinutes != nil {
			delaySum += float64(*r.DelayMinutes)
			delayCount++
		}

		hour := r.ScheduledTime.Hour()
		hourScores[hour] = append(hourScores[hour], r.Score)
	}

	if delayCount > 0 {
		metric.AverageDelayMinutes = delaySum / delayCount
	}
	metric.AdherenceRate = e.AggregateRate(scoped)
	metric.BestTimeAdherence, metric.WorstTimeAdherence = bestWorstHours(hourScores)
	metric.Trends = dailyTrends(scoped)

	return metric
}

// bestWorstHours finds the hour slots with the highest and lowest mean
// score; ties go to the earlier hour
func bestWorstHours(hourScores map[int][]float64) (best, worst *model.TimeAdherence) {
	for hour := 0; hour < 24; hour++ {
		scores, ok := hourScores[hour]
		if !ok || len(scores) == 0 {
			continue
		}
		var sum float64
		for _, s := range scores {
			sum += s
		}
		slot := &model.TimeAdherence{
			Hour:          hour,
			Minute:        0,
			AdherenceRate: sum / float64(len(scores)),
			TotalDoses:    len(scores),
		}
		if best == nil || slot.AdherenceRate > best.AdherenceRate {
			best = slot
		}
		if worst == nil || slot.AdherenceRate < worst.AdherenceRate {
			worst = slot
		}
	}
	return best, worst
}

// dailyTrends buckets the daily mean score in chronological order, one
// point per day present in the data; days without doses get no point
func dailyTrends(sorted []model.IntakeRecord) []model.DailyRate {
	trends := []model.DailyRate{}
	var curDate time.Time
	var sum float64
	var count int

	flush := func() {
		if count > 0 {
			trends = append(trends, model.DailyRate{Date: curDate, Rate: sum / float64(count)})
		}
	}

	for _, r := range sorted {
		date := time.Date(r.ScheduledTime.Year(), r.ScheduledTime.Month(), r.ScheduledTime.Day(), 0, 0, 0, 0, r.ScheduledTime.Location())
		if !date.Equal(curDate) {
			flush()
			curDate = date
			sum, count = 0, 0
		}
		sum += r.Score
		count++
	}
	flush()
	return trends
}
