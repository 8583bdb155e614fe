package adherence

import (
	"hash"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/dawahealth/adherence-backend/pkg/model"
)

// reportKey identifies one memoized progress report. A configuration
// update bumps the config version, so stale entries can never be served
// even before the cache is cleared.
type reportKey struct {
	patientID      string
	period         string
	recordsVersion uint64
	configVersion  uint64
}

// ReportCache memoizes progress reports. It is an explicit injected
// object rather than a hidden global so the engine stays testable.
type ReportCache struct {
	mu      sync.Mutex
	entries map[reportKey]model.ProgressMetrics
}

// NewReportCache creates an empty report cache
func NewReportCache() *ReportCache {
	return &ReportCache{
		entries: make(map[reportKey]model.ProgressMetrics),
	}
}

func (c *ReportCache) Get(key reportKey) (model.ProgressMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.entries[key]
	return report, ok
}

func (c *ReportCache) Put(key reportKey, report model.ProgressMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = report
}

// Clear drops all memoized reports
func (c *ReportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[reportKey]model.ProgressMetrics)
}

// Len reports the number of cached entries
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// fingerprintRecords produces a stable version for a record set so cached
// reports are invalidated when the underlying records change. Cultural
// annotations are part of the fingerprint: re-annotating a dose changes
// its classification even when no timestamp moved.
func fingerprintRecords(records []model.IntakeRecord) uint64 {
	h := fnv.New64a()
	for _, r := range records {
		h.Write([]byte(r.ID))
		h.Write([]byte(strconv.FormatInt(r.ScheduledTime.UnixNano(), 10)))
		if r.TakenTime != nil {
			h.Write([]byte(strconv.FormatInt(r.TakenTime.UnixNano(), 10)))
		}
		fingerprintCulturalContext(h, r.CulturalContext)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func fingerprintCulturalContext(h hash.Hash64, cc *model.CulturalContext) {
	if cc == nil {
		return
	}
	h.Write([]byte(strconv.FormatBool(cc.IsFastingPeriod)))
	if cc.PrayerName != nil {
		h.Write([]byte(*cc.PrayerName))
	}
	h.Write([]byte{1})
	if cc.FestivalName != nil {
		h.Write([]byte(*cc.FestivalName))
	}
	h.Write([]byte{1})
	if cc.MealPreference != nil {
		h.Write([]byte(*cc.MealPreference))
	}
	h.Write([]byte(strconv.FormatBool(cc.FamilyReported)))
}
