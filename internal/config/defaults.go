package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"pomodoro/timerd/internal/model"
)

// DefaultsFile is the layout of the timer defaults file:
//
//	[defaults]
//	focus_minutes = 25
//	short_break_minutes = 5
//	long_break_minutes = 15
//	cycle_length = 4
//	sound_enabled = true
//	vibration_enabled = true
type DefaultsFile struct {
	Defaults model.TimerSettings `toml:"defaults"`
}

// LoadDefaults reads timer defaults from a TOML file. Keys the file leaves out
// keep their built-in value, and a missing file yields the built-in defaults.
func LoadDefaults(path string) (model.TimerSettings, error) {
	file := DefaultsFile{Defaults: model.DefaultTimerSettings()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return file.Defaults, nil
		}
		return model.TimerSettings{}, fmt.Errorf("read defaults file: %w", err)
	}

	if err := toml.Unmarshal(data, &file); err != nil {
		return model.TimerSettings{}, fmt.Errorf("parse defaults file %s: %w", path, err)
	}
	return file.Defaults.Clamped(), nil
}
