package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/vBaggio/qronis/internal/models"
)

const (
	GroupByNone        = "None"
	GroupByDay         = "Daily"
	GroupByWeek        = "Weekly"
	GroupByWeekOfMonth = "WeeklyOfMonth"
)

// WeekOfMonth returns the 1-based Monday-anchored week number of t within
// its month.
func WeekOfMonth(t time.Time) int {
	year, month, _ := t.Date()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	offset := int(firstOfMonth.Weekday())
	if offset == 0 {
		offset = 7
	}
	firstMonday := firstOfMonth.AddDate(0, 0, -offset+1)

	tOffset := int(t.Weekday())
	if tOffset == 0 {
		tOffset = 7
	}
	tMonday := t.AddDate(0, 0, -tOffset+1)

	return int(tMonday.Sub(firstMonday).Hours()/24/7) + 1
}

// WeekRange returns the Monday and Sunday bounding t's week.
func WeekRange(t time.Time) (time.Time, time.Time) {
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := t.AddDate(0, 0, -offset+1)
	return start, start.AddDate(0, 0, 6)
}

// GroupKey produces a sortable bucket key for t under the given grouping.
func GroupKey(t time.Time, groupBy string) string {
	switch groupBy {
	case GroupByDay:
		return t.Format("2006-01-02")
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GroupByWeekOfMonth:
		year, month, _ := t.Date()
		return fmt.Sprintf("%d-%02d-W%d", year, month, WeekOfMonth(t))
	}
	return ""
}

// GroupTitle produces the human heading for t's bucket.
func GroupTitle(t time.Time, groupBy string) string {
	switch groupBy {
	case GroupByDay:
		return t.Format("Monday, 02 Jan 2006")
	case GroupByWeek:
		start, end := WeekRange(t)
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	case GroupByWeekOfMonth:
		start, end := WeekRange(t)

		// Clamp to t's month so the heading never bleeds into neighbours.
		year, month, _ := t.Date()
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
		lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
		if start.Before(firstOfMonth) {
			start = firstOfMonth
		}
		if end.After(lastOfMonth) {
			end = lastOfMonth
		}
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	}
	return ""
}

// Group buckets entries by GroupKey and returns the keys newest first.
func Group(entries []models.TimeEntry, groupBy string) (map[string][]models.TimeEntry, []string) {
	groups := make(map[string][]models.TimeEntry)
	var keys []string
	for _, e := range entries {
		key := GroupKey(e.StartTime, groupBy)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], e)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return groups, keys
}

// Total sums the tracked duration of entries, counting running entries up
// to now.
func Total(entries []models.TimeEntry, now time.Time) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += e.Duration(now)
	}
	return total
}

// TotalsByProject sums durations per project name.
func TotalsByProject(entries []models.TimeEntry, now time.Time) map[string]time.Duration {
	sums := make(map[string]time.Duration)
	for _, e := range entries {
		sums[e.ProjectName] += e.Duration(now)
	}
	return sums
}

// InRange filters entries whose start falls on a day within [start, end].
func InRange(entries []models.TimeEntry, start, end time.Time) []models.TimeEntry {
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	dayEnd := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())

	var out []models.TimeEntry
	for _, e := range entries {
		local := e.StartTime.In(start.Location())
		if !local.Before(dayStart) && !local.After(dayEnd) {
			out = append(out, e)
		}
	}
	return out
}
