package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vBaggio/qronis/internal/models"
	"github.com/vBaggio/qronis/internal/service"
)

func entryAt(start time.Time, dur time.Duration, project string) models.TimeEntry {
	end := start.Add(dur)
	return models.TimeEntry{
		StartTime:   start,
		EndTime:     &end,
		ProjectName: project,
	}
}

func TestGroupKey(t *testing.T) {
	// A Wednesday.
	day := time.Date(2026, 8, 12, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-08-12", service.GroupKey(day, service.GroupByDay))
	assert.Equal(t, "2026-W33", service.GroupKey(day, service.GroupByWeek))
	assert.Equal(t, "2026-08-W3", service.GroupKey(day, service.GroupByWeekOfMonth))
	assert.Empty(t, service.GroupKey(day, service.GroupByNone))
}

func TestWeekRange(t *testing.T) {
	wednesday := time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)
	start, end := service.WeekRange(wednesday)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Sunday, end.Weekday())
	assert.Equal(t, 10, start.Day())
	assert.Equal(t, 16, end.Day())

	// Sunday belongs to the preceding Monday's week.
	sunday := time.Date(2026, 8, 16, 10, 0, 0, 0, time.UTC)
	start, _ = service.WeekRange(sunday)
	assert.Equal(t, 10, start.Day())
}

func TestGroup_NewestFirst(t *testing.T) {
	entries := []models.TimeEntry{
		entryAt(time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC), time.Hour, "A"),
		entryAt(time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC), time.Hour, "A"),
		entryAt(time.Date(2026, 8, 12, 14, 0, 0, 0, time.UTC), time.Hour, "B"),
	}

	groups, keys := service.Group(entries, service.GroupByDay)
	require.Equal(t, []string{"2026-08-12", "2026-08-10"}, keys)
	assert.Len(t, groups["2026-08-12"], 2)
	assert.Len(t, groups["2026-08-10"], 1)
}

func TestTotal_CountsRunningEntriesUpToNow(t *testing.T) {
	now := time.Date(2026, 8, 12, 12, 0, 0, 0, time.UTC)
	running := models.TimeEntry{StartTime: now.Add(-30 * time.Minute)}
	finished := entryAt(now.Add(-2*time.Hour), time.Hour, "A")

	total := service.Total([]models.TimeEntry{running, finished}, now)
	assert.Equal(t, 90*time.Minute, total)
}

func TestTotalsByProject(t *testing.T) {
	now := time.Now()
	entries := []models.TimeEntry{
		entryAt(now.Add(-4*time.Hour), time.Hour, "Alpha"),
		entryAt(now.Add(-2*time.Hour), 30*time.Minute, "Alpha"),
		entryAt(now.Add(-1*time.Hour), 15*time.Minute, "Beta"),
	}

	sums := service.TotalsByProject(entries, now)
	assert.Equal(t, 90*time.Minute, sums["Alpha"])
	assert.Equal(t, 15*time.Minute, sums["Beta"])
}

func TestInRange_UsesWholeDays(t *testing.T) {
	loc := time.UTC
	rangeStart := time.Date(2026, 8, 10, 15, 0, 0, 0, loc) // mid-afternoon
	rangeEnd := time.Date(2026, 8, 11, 8, 0, 0, 0, loc)

	early := entryAt(time.Date(2026, 8, 10, 7, 0, 0, 0, loc), time.Hour, "A")
	late := entryAt(time.Date(2026, 8, 11, 23, 0, 0, 0, loc), time.Hour, "A")
	outside := entryAt(time.Date(2026, 8, 9, 23, 0, 0, 0, loc), time.Hour, "A")

	got := service.InRange([]models.TimeEntry{early, late, outside}, rangeStart, rangeEnd)
	// The range is inclusive of both whole days regardless of clock time.
	assert.Len(t, got, 2)
}
