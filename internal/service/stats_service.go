package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "pomodoro/timerd/internal/errors"
	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/repository"
)

const dateLayout = "2006-01-02"

// CycleReader reports where a user's live timer is in its focus cycle.
type CycleReader interface {
	Cycle(ctx context.Context, userID string) (position, length int)
}

// StatsService aggregates focus records by local calendar day.
type StatsService struct {
	sessions  *repository.SessionRepository
	cycles    CycleReader
	location  *time.Location
	weekStart time.Weekday
	now       func() time.Time
	logger    logrus.FieldLogger
}

type StatsOption func(*StatsService)

func WithStatsClock(now func() time.Time) StatsOption {
	return func(s *StatsService) {
		s.now = now
	}
}

func WithCycleReader(cycles CycleReader) StatsOption {
	return func(s *StatsService) {
		s.cycles = cycles
	}
}

func NewStatsService(
	sessions *repository.SessionRepository,
	location *time.Location,
	weekStart time.Weekday,
	logger logrus.FieldLogger,
	options ...StatsOption,
) *StatsService {
	if location == nil {
		location = time.Local
	}
	s := &StatsService{
		sessions:  sessions,
		location:  location,
		weekStart: weekStart,
		now:       time.Now,
		logger:    logger.WithField("component", "stats"),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// ParseDate reads a YYYY-MM-DD date in the service's time zone. An empty
// string means today.
func (s *StatsService) ParseDate(raw string) (time.Time, *apperrors.APIError) {
	if strings.TrimSpace(raw) == "" {
		return s.now().In(s.location), nil
	}
	date, err := time.ParseInLocation(dateLayout, raw, s.location)
	if err != nil {
		return time.Time{}, apperrors.BadRequest("invalid_date", "date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

func (s *StatsService) Daily(ctx context.Context, userID string, date time.Time) (*model.DailyStats, *apperrors.APIError) {
	from := s.startOfDay(date)
	records, err := s.sessions.ListStartedBetween(ctx, userID, from, from.AddDate(0, 0, 1))
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("load daily sessions")
		return nil, apperrors.Internal("failed to load statistics").WithCause(err)
	}

	daily := s.bucket(records)[from.Format(dateLayout)]
	daily.Date = from.Format(dateLayout)
	return &daily, nil
}

// Weekly returns seven consecutive days starting at the beginning of the week
// containing date. Days without records are zero.
func (s *StatsService) Weekly(ctx context.Context, userID string, date time.Time) ([]model.DailyStats, *apperrors.APIError) {
	day := s.startOfDay(date)
	offset := (int(day.Weekday()) - int(s.weekStart) + 7) % 7
	from := day.AddDate(0, 0, -offset)

	records, err := s.sessions.ListStartedBetween(ctx, userID, from, from.AddDate(0, 0, 7))
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("load weekly sessions")
		return nil, apperrors.Internal("failed to load statistics").WithCause(err)
	}

	buckets := s.bucket(records)
	week := make([]model.DailyStats, 0, 7)
	for i := 0; i < 7; i++ {
		key := from.AddDate(0, 0, i).Format(dateLayout)
		daily := buckets[key]
		daily.Date = key
		week = append(week, daily)
	}
	return week, nil
}

func (s *StatsService) Today(ctx context.Context, userID string) (*model.TodayStats, *apperrors.APIError) {
	daily, apiErr := s.Daily(ctx, userID, s.now())
	if apiErr != nil {
		return nil, apiErr
	}
	today := model.TodayStats{DailyStats: *daily}
	if s.cycles != nil {
		today.CyclePosition, today.CycleLength = s.cycles.Cycle(ctx, userID)
	}
	return &today, nil
}

func (s *StatsService) AllTime(ctx context.Context, userID string) (*model.AllTimeStats, *apperrors.APIError) {
	records, err := s.sessions.ListAll(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("load sessions")
		return nil, apperrors.Internal("failed to load statistics").WithCause(err)
	}

	var stats model.AllTimeStats
	buckets := s.bucket(records)
	for _, daily := range buckets {
		stats.TotalCompletedFocus += daily.CompletedFocus
		stats.TotalFocusMinutes += daily.FocusMinutes
	}
	stats.ActiveDays = len(buckets)
	if stats.ActiveDays > 0 {
		stats.AverageDailyFocusMinutes = stats.TotalFocusMinutes / stats.ActiveDays
	}
	return &stats, nil
}

// bucket groups focus records by the local date they started on. Minutes count
// every focus record; CompletedFocus only the completed ones.
func (s *StatsService) bucket(records []model.SessionRecord) map[string]model.DailyStats {
	buckets := make(map[string]model.DailyStats)
	for _, record := range records {
		if record.Kind != model.KindFocus {
			continue
		}
		key := record.StartedAt.In(s.location).Format(dateLayout)
		daily := buckets[key]
		daily.Date = key
		daily.FocusMinutes += record.FocusMinutes()
		if record.Completed {
			daily.CompletedFocus++
		}
		buckets[key] = daily
	}
	return buckets
}

func (s *StatsService) startOfDay(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}

// ParseWeekday accepts full English day names, case-insensitively.
func ParseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.ToLower(day.String()) == name {
			return day, nil
		}
	}
	return time.Monday, fmt.Errorf("unknown weekday %q", raw)
}
