package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/timerd/internal/model"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("AUTO_ADVANCE_SECONDS", "0")
	t.Setenv("TOKEN_TTL_HOURS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, time.Duration(0), cfg.AutoAdvance)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, "./timerd.toml", cfg.ConfigFile)
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "Local"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = Config{Timezone: "Nowhere/Special"}.Location()
	assert.Error(t, err)
}

func TestLoadDefaultsMissingFile(t *testing.T) {
	settings, err := LoadDefaults(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTimerSettings(), settings)
}

func TestLoadDefaultsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timerd.toml")
	content := `
[defaults]
focus_minutes = 50
cycle_length = 0
sound_enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, 50, settings.FocusMinutes)
	assert.Equal(t, model.DefaultShortBreakMinutes, settings.ShortBreakMinutes)
	assert.Equal(t, 1, settings.CycleLength)
	assert.False(t, settings.SoundEnabled)
	assert.True(t, settings.VibrationEnabled)
}

func TestLoadDefaultsRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timerd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[defaults\nfocus_minutes = "), 0o644))

	_, err := LoadDefaults(path)
	assert.Error(t, err)
}

func TestDefaultsWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timerd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[defaults]\nfocus_minutes = 25\n"), 0o644))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var mu sync.Mutex
	var got []model.TimerSettings
	watcher := NewDefaultsWatcher(path, func(settings model.TimerSettings) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, settings)
	}, logger)
	watcher.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("[defaults]\nfocus_minutes = 45\n"), 0o644)
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1].FocusMinutes == 45
	}, 3*time.Second, 50*time.Millisecond)

	// Unrelated files in the directory are ignored.
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	before := len(got)
	mu.Unlock()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, before, len(got))
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
