package timer

import (
	"fmt"
	"time"

	"pomodoro/timerd/internal/model"
)

// TickMillis is the countdown step applied on every tick.
const TickMillis int64 = 1000

// DurationMillis maps a session kind to its configured length. Values below one
// minute are raised to one minute.
func DurationMillis(kind model.SessionKind, settings model.TimerSettings) int64 {
	return int64(max(settings.Minutes(kind), 1)) * int64(time.Minute/time.Millisecond)
}

// Counters feeds the long-break decision.
type Counters struct {
	// CyclePosition counts focus sessions finished since the last long break.
	CyclePosition int
	// FocusCount counts every focus session finished by this timer.
	FocusCount int
}

// LongBreakRule reports whether the focus session that just finished earns a
// long break. It is called after the counters were incremented.
type LongBreakRule func(c Counters, cycleLength int) bool

// ThresholdRule grants a long break once CyclePosition reaches the cycle length.
func ThresholdRule(c Counters, cycleLength int) bool {
	return c.CyclePosition >= max(cycleLength, 1)
}

// ModuloRule grants a long break on every cycleLength-th focus session counted
// over the lifetime of the timer.
func ModuloRule(c Counters, cycleLength int) bool {
	return c.FocusCount > 0 && c.FocusCount%max(cycleLength, 1) == 0
}

// RuleByName resolves the names accepted in configuration.
func RuleByName(name string) (LongBreakRule, error) {
	switch name {
	case "", "threshold":
		return ThresholdRule, nil
	case "modulo":
		return ModuloRule, nil
	}
	return nil, fmt.Errorf("unknown long break rule %q", name)
}

// NextKind decides what follows a finished or abandoned session.
func NextKind(kind model.SessionKind, c Counters, cycleLength int, rule LongBreakRule) model.SessionKind {
	switch kind {
	case model.KindFocus:
		if rule(c, cycleLength) {
			return model.KindLongBreak
		}
		return model.KindShortBreak
	case model.KindShortBreak, model.KindLongBreak:
		return model.KindFocus
	}
	panic(fmt.Sprintf("timer: unhandled session kind %q", string(kind)))
}

// Progress is the elapsed fraction of a countdown.
func Progress(totalMillis, remainingMillis int64) float64 {
	if totalMillis <= 0 {
		return 1.0
	}
	elapsed := float64(totalMillis-remainingMillis) / float64(totalMillis)
	return min(max(elapsed, 0), 1)
}

// FormatClock renders milliseconds as MM:SS. Minutes are not wrapped at 60.
func FormatClock(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	seconds := millis / 1000
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// CompletionMessage is the text shown when a session of the given kind ends on
// its own.
func CompletionMessage(kind model.SessionKind) string {
	switch kind {
	case model.KindFocus:
		return "Focus session completed! Take a break."
	case model.KindShortBreak:
		return "Break's over. Ready to focus?"
	case model.KindLongBreak:
		return "Long break completed. Great job on your cycle!"
	}
	panic(fmt.Sprintf("timer: unhandled session kind %q", string(kind)))
}
