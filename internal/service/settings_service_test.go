package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/repository"
	"pomodoro/timerd/internal/service"
)

func newSettingsService(t *testing.T) *service.SettingsService {
	t.Helper()
	database := openTestDB(t)
	seedUser(t, database, "u1")
	settings := service.NewSettingsService(repository.NewSettingsRepository(database), model.DefaultTimerSettings(), quietLogger())
	t.Cleanup(settings.Close)
	return settings
}

func TestSettingsGetFallsBackToDefaults(t *testing.T) {
	settings := newSettingsService(t)

	assert.Equal(t, model.DefaultTimerSettings(), settings.Get(context.Background(), "u1"))

	replaced := model.DefaultTimerSettings()
	replaced.FocusMinutes = 40
	settings.SetDefaults(replaced)
	assert.Equal(t, 40, settings.Get(context.Background(), "u1").FocusMinutes)
}

func TestSettingsUpdatePersistsAndPublishes(t *testing.T) {
	settings := newSettingsService(t)
	sub := settings.Observe()
	defer sub.Close()

	updated := model.DefaultTimerSettings()
	updated.FocusMinutes = 50
	updated.VibrationEnabled = false

	saved, apiErr := settings.Update(context.Background(), "u1", updated)
	require.Nil(t, apiErr)
	assert.Equal(t, updated, *saved)
	assert.Equal(t, updated, settings.Get(context.Background(), "u1"))

	select {
	case change := <-sub.C():
		assert.Equal(t, "u1", change.UserID)
		assert.Equal(t, 50, change.Settings.FocusMinutes)
	case <-time.After(time.Second):
		t.Fatal("no settings change published")
	}
}

func TestSettingsSetDefaultsPublishesServerWideChange(t *testing.T) {
	settings := newSettingsService(t)
	sub := settings.Observe()
	defer sub.Close()

	settings.SetDefaults(model.TimerSettings{FocusMinutes: 0, ShortBreakMinutes: 3, LongBreakMinutes: 10, CycleLength: 2})

	change := <-sub.C()
	assert.Empty(t, change.UserID)
	assert.Equal(t, 1, change.Settings.FocusMinutes)
	assert.Equal(t, 1, settings.Defaults().FocusMinutes)
}

func TestValidateSettings(t *testing.T) {
	valid := model.DefaultTimerSettings()
	assert.Nil(t, service.ValidateSettings(valid))

	tests := []struct {
		name   string
		mutate func(*model.TimerSettings)
	}{
		{"focus too short", func(s *model.TimerSettings) { s.FocusMinutes = 4 }},
		{"focus too long", func(s *model.TimerSettings) { s.FocusMinutes = 61 }},
		{"short break zero", func(s *model.TimerSettings) { s.ShortBreakMinutes = 0 }},
		{"short break too long", func(s *model.TimerSettings) { s.ShortBreakMinutes = 31 }},
		{"long break too short", func(s *model.TimerSettings) { s.LongBreakMinutes = 4 }},
		{"cycle zero", func(s *model.TimerSettings) { s.CycleLength = 0 }},
		{"cycle too long", func(s *model.TimerSettings) { s.CycleLength = 11 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := valid
			tt.mutate(&settings)
			apiErr := service.ValidateSettings(settings)
			require.NotNil(t, apiErr)
			assert.Equal(t, "invalid_settings", apiErr.Code)
			assert.Equal(t, 400, apiErr.Status)
		})
	}
}

func TestSettingsUpdateRejectsOutOfRange(t *testing.T) {
	settings := newSettingsService(t)

	invalid := model.DefaultTimerSettings()
	invalid.CycleLength = 42
	_, apiErr := settings.Update(context.Background(), "u1", invalid)
	require.NotNil(t, apiErr)
	assert.Equal(t, model.DefaultTimerSettings(), settings.Get(context.Background(), "u1"))
}
