package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/repository"
	"pomodoro/timerd/internal/service"
)

type fixedCycle struct{ position, length int }

func (f fixedCycle) Cycle(context.Context, string) (int, int) { return f.position, f.length }

type statsFixture struct {
	stats    *service.StatsService
	sessions *repository.SessionRepository
	location *time.Location
}

func newStatsFixture(t *testing.T, now time.Time) statsFixture {
	t.Helper()
	database := openTestDB(t)
	seedUser(t, database, "u1")

	location := time.FixedZone("UTC+2", 2*60*60)
	sessions := repository.NewSessionRepository(database)
	stats := service.NewStatsService(
		sessions,
		location,
		time.Monday,
		quietLogger(),
		service.WithStatsClock(func() time.Time { return now }),
		service.WithCycleReader(fixedCycle{position: 2, length: 4}),
	)
	return statsFixture{stats: stats, sessions: sessions, location: location}
}

func (f statsFixture) add(t *testing.T, kind model.SessionKind, start time.Time, length time.Duration, completed bool) {
	t.Helper()
	require.NoError(t, f.sessions.Insert(context.Background(), &model.SessionRecord{
		ID:             uuid.NewString(),
		UserID:         "u1",
		Kind:           kind,
		PlannedMinutes: 25,
		Completed:      completed,
		StartedAt:      start,
		EndedAt:        start.Add(length),
		CreatedAt:      start.Add(length),
	}))
}

func TestStatsDailyCountsCompletedAndAllFocusMinutes(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	f := newStatsFixture(t, now)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, f.location)

	f.add(t, model.KindFocus, day.Add(9*time.Hour), 25*time.Minute, true)
	f.add(t, model.KindFocus, day.Add(10*time.Hour), 12*time.Minute+59*time.Second, false)
	f.add(t, model.KindShortBreak, day.Add(11*time.Hour), 5*time.Minute, true)
	f.add(t, model.KindFocus, day.Add(-time.Minute), 25*time.Minute, true)

	daily, apiErr := f.stats.Daily(context.Background(), "u1", day.Add(15*time.Hour))
	require.Nil(t, apiErr)
	assert.Equal(t, "2026-03-04", daily.Date)
	assert.Equal(t, 1, daily.CompletedFocus)
	assert.Equal(t, 37, daily.FocusMinutes)
}

func TestStatsDailyBucketsByLocalDate(t *testing.T) {
	f := newStatsFixture(t, time.Now())

	// 23:30 UTC on March 3 is already March 4 two hours east.
	f.add(t, model.KindFocus, time.Date(2026, 3, 3, 23, 30, 0, 0, time.UTC), 25*time.Minute, true)

	date, apiErr := f.stats.ParseDate("2026-03-04")
	require.Nil(t, apiErr)
	daily, apiErr := f.stats.Daily(context.Background(), "u1", date)
	require.Nil(t, apiErr)
	assert.Equal(t, 1, daily.CompletedFocus)

	date, apiErr = f.stats.ParseDate("2026-03-03")
	require.Nil(t, apiErr)
	daily, apiErr = f.stats.Daily(context.Background(), "u1", date)
	require.Nil(t, apiErr)
	assert.Equal(t, 0, daily.CompletedFocus)
}

func TestStatsWeeklyStartsOnConfiguredDayAndZeroFills(t *testing.T) {
	f := newStatsFixture(t, time.Now())
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, f.location)

	f.add(t, model.KindFocus, monday.Add(8*time.Hour), 25*time.Minute, true)
	f.add(t, model.KindFocus, monday.AddDate(0, 0, 3).Add(8*time.Hour), 25*time.Minute, true)
	f.add(t, model.KindFocus, monday.AddDate(0, 0, 7).Add(8*time.Hour), 25*time.Minute, true)

	week, apiErr := f.stats.Weekly(context.Background(), "u1", monday.AddDate(0, 0, 5))
	require.Nil(t, apiErr)
	require.Len(t, week, 7)

	assert.Equal(t, "2026-03-02", week[0].Date)
	assert.Equal(t, "2026-03-08", week[6].Date)
	assert.Equal(t, 1, week[0].CompletedFocus)
	assert.Equal(t, 0, week[1].CompletedFocus)
	assert.Equal(t, 1, week[3].CompletedFocus)
	assert.Equal(t, 25, week[3].FocusMinutes)
	assert.Equal(t, 0, week[6].FocusMinutes)
}

func TestStatsAllTimeAveragesOverActiveDays(t *testing.T) {
	f := newStatsFixture(t, time.Now())
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, f.location)

	f.add(t, model.KindFocus, day, 25*time.Minute, true)
	f.add(t, model.KindFocus, day.Add(time.Hour), 10*time.Minute, false)
	f.add(t, model.KindFocus, day.AddDate(0, 0, 5), 25*time.Minute, true)
	f.add(t, model.KindLongBreak, day.AddDate(0, 0, 6), 15*time.Minute, true)

	stats, apiErr := f.stats.AllTime(context.Background(), "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, 2, stats.TotalCompletedFocus)
	assert.Equal(t, 60, stats.TotalFocusMinutes)
	assert.Equal(t, 2, stats.ActiveDays)
	assert.Equal(t, 30, stats.AverageDailyFocusMinutes)
}

func TestStatsAllTimeWithoutRecords(t *testing.T) {
	f := newStatsFixture(t, time.Now())

	stats, apiErr := f.stats.AllTime(context.Background(), "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, model.AllTimeStats{}, *stats)
}

func TestStatsTodayIncludesCycle(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	f := newStatsFixture(t, now)
	f.add(t, model.KindFocus, now.Add(-time.Hour), 25*time.Minute, true)

	today, apiErr := f.stats.Today(context.Background(), "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, "2026-03-04", today.Date)
	assert.Equal(t, 1, today.CompletedFocus)
	assert.Equal(t, 2, today.CyclePosition)
	assert.Equal(t, 4, today.CycleLength)
}

func TestStatsParseDateRejectsGarbage(t *testing.T) {
	f := newStatsFixture(t, time.Now())

	_, apiErr := f.stats.ParseDate("03/04/2026")
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_date", apiErr.Code)
}

func TestParseWeekday(t *testing.T) {
	day, err := service.ParseWeekday("Sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, day)

	day, err = service.ParseWeekday(" monday ")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)

	_, err = service.ParseWeekday("someday")
	assert.Error(t, err)
}
