package models

import (
	"sort"
	"time"
)

// HistoryLimit is the size of the daily count window kept per account.
const HistoryLimit = 7

// DateLayout is the calendar day format used as the history key.
const DateLayout = "2006-01-02"

type DailyCountRecord struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// HistorySeries is the bounded daily count series of one account.
type HistorySeries struct {
	AccountID string             `json:"username"`
	Records   []DailyCountRecord `json:"records"`
}

// DateOf returns the calendar day of t in loc.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// Upsert replaces the record for date (or adds it) and slides the window.
func (hs *HistorySeries) Upsert(date string, count int) {
	records := make([]DailyCountRecord, 0, len(hs.Records)+1)
	for _, r := range hs.Records {
		if r.Date != date {
			records = append(records, r)
		}
	}
	records = append(records, DailyCountRecord{Date: date, Count: count})
	hs.Records = records
	hs.Normalize()
}

// Normalize sorts records ascending by date, keeps the last record seen for a
// duplicated date and drops everything older than the newest HistoryLimit days.
func (hs *HistorySeries) Normalize() {
	byDate := make(map[string]int, len(hs.Records))
	records := make([]DailyCountRecord, 0, len(hs.Records))
	for _, r := range hs.Records {
		if i, ok := byDate[r.Date]; ok {
			records[i].Count = r.Count
			continue
		}
		byDate[r.Date] = len(records)
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})

	if len(records) > HistoryLimit {
		records = append([]DailyCountRecord(nil), records[len(records)-HistoryLimit:]...)
	}
	hs.Records = records
}

// WeeklyChange is the difference between the newest and the oldest count in
// the window, or 0 when fewer than two days are known.
func WeeklyChange(records []DailyCountRecord) int {
	if len(records) < 2 {
		return 0
	}
	return records[len(records)-1].Count - records[0].Count
}
