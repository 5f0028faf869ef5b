package model

import "time"

const (
	DefaultFocusMinutes      = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultCycleLength       = 4
)

type TimerSettings struct {
	FocusMinutes      int  `json:"focusMinutes" toml:"focus_minutes"`
	ShortBreakMinutes int  `json:"shortBreakMinutes" toml:"short_break_minutes"`
	LongBreakMinutes  int  `json:"longBreakMinutes" toml:"long_break_minutes"`
	CycleLength       int  `json:"cycleLength" toml:"cycle_length"`
	SoundEnabled      bool `json:"soundEnabled" toml:"sound_enabled"`
	VibrationEnabled  bool `json:"vibrationEnabled" toml:"vibration_enabled"`
}

func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		FocusMinutes:      DefaultFocusMinutes,
		ShortBreakMinutes: DefaultShortBreakMinutes,
		LongBreakMinutes:  DefaultLongBreakMinutes,
		CycleLength:       DefaultCycleLength,
		SoundEnabled:      true,
		VibrationEnabled:  true,
	}
}

// Minutes returns the configured length of a session kind.
func (s TimerSettings) Minutes(kind SessionKind) int {
	switch kind {
	case KindFocus:
		return s.FocusMinutes
	case KindShortBreak:
		return s.ShortBreakMinutes
	case KindLongBreak:
		return s.LongBreakMinutes
	}
	panic("model: unhandled session kind " + string(kind))
}

// Clamped raises every non-positive value to 1.
func (s TimerSettings) Clamped() TimerSettings {
	s.FocusMinutes = max(s.FocusMinutes, 1)
	s.ShortBreakMinutes = max(s.ShortBreakMinutes, 1)
	s.LongBreakMinutes = max(s.LongBreakMinutes, 1)
	s.CycleLength = max(s.CycleLength, 1)
	return s
}

// UserSettings is a stored settings row.
type UserSettings struct {
	UserID string
	TimerSettings
	UpdatedAt time.Time
}
