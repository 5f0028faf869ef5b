package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "pomodoro/timerd/internal/errors"
	"pomodoro/timerd/internal/events"
	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/repository"
)

// Accepted ranges for user supplied settings, in minutes.
const (
	MinFocusMinutes      = 5
	MaxFocusMinutes      = 60
	MinShortBreakMinutes = 1
	MaxShortBreakMinutes = 30
	MinLongBreakMinutes  = 5
	MaxLongBreakMinutes  = 60
	MinCycleLength       = 1
	MaxCycleLength       = 10
)

// SettingsChange is published whenever effective settings may have changed.
// An empty UserID means the server defaults were replaced.
type SettingsChange struct {
	UserID   string
	Settings model.TimerSettings
}

type SettingsService struct {
	repo     *repository.SettingsRepository
	defaults atomic.Pointer[model.TimerSettings]
	changes  *events.Bus[SettingsChange]
	logger   logrus.FieldLogger
}

func NewSettingsService(repo *repository.SettingsRepository, defaults model.TimerSettings, logger logrus.FieldLogger) *SettingsService {
	logger = logger.WithField("component", "settings")
	s := &SettingsService{
		repo:    repo,
		changes: events.New[SettingsChange](events.WithLogger[SettingsChange](logger)),
		logger:  logger,
	}
	clamped := defaults.Clamped()
	s.defaults.Store(&clamped)
	return s
}

func (s *SettingsService) Defaults() model.TimerSettings {
	return *s.defaults.Load()
}

// SetDefaults replaces the settings used by users who never saved their own.
func (s *SettingsService) SetDefaults(defaults model.TimerSettings) {
	clamped := defaults.Clamped()
	s.defaults.Store(&clamped)
	s.logger.WithField("defaults", fmt.Sprintf("%+v", clamped)).Info("default settings replaced")
	s.changes.Publish(SettingsChange{Settings: clamped})
}

// Get never fails: a missing or unreadable row yields the server defaults.
func (s *SettingsService) Get(ctx context.Context, userID string) model.TimerSettings {
	stored, err := s.repo.Get(ctx, userID)
	if err == nil {
		return stored.TimerSettings
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.WithError(err).WithField("user_id", userID).Warn("read settings, using defaults")
	}
	return s.Defaults()
}

func (s *SettingsService) Update(ctx context.Context, userID string, settings model.TimerSettings) (*model.TimerSettings, *apperrors.APIError) {
	if apiErr := ValidateSettings(settings); apiErr != nil {
		return nil, apiErr
	}

	stored := model.UserSettings{
		UserID:        userID,
		TimerSettings: settings,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, &stored); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("save settings")
		return nil, apperrors.Internal("failed to save settings").WithCause(err)
	}

	s.changes.Publish(SettingsChange{UserID: userID, Settings: settings})
	return &settings, nil
}

// Observe streams settings changes until the subscription or the service is
// closed.
func (s *SettingsService) Observe() *events.Subscription[SettingsChange] {
	return s.changes.Subscribe()
}

func (s *SettingsService) Close() {
	s.changes.Close()
}

func ValidateSettings(settings model.TimerSettings) *apperrors.APIError {
	checks := []struct {
		name     string
		value    int
		min, max int
	}{
		{"focusMinutes", settings.FocusMinutes, MinFocusMinutes, MaxFocusMinutes},
		{"shortBreakMinutes", settings.ShortBreakMinutes, MinShortBreakMinutes, MaxShortBreakMinutes},
		{"longBreakMinutes", settings.LongBreakMinutes, MinLongBreakMinutes, MaxLongBreakMinutes},
		{"cycleLength", settings.CycleLength, MinCycleLength, MaxCycleLength},
	}
	for _, check := range checks {
		if check.value < check.min || check.value > check.max {
			return apperrors.BadRequest(
				"invalid_settings",
				fmt.Sprintf("%s must be between %d and %d", check.name, check.min, check.max),
			)
		}
	}
	return nil
}
