package model

import (
	"fmt"
	"time"
)

type SessionKind string

const (
	KindFocus      SessionKind = "focus"
	KindShortBreak SessionKind = "short_break"
	KindLongBreak  SessionKind = "long_break"
)

// SessionKinds lists every kind in display order.
var SessionKinds = []SessionKind{KindFocus, KindShortBreak, KindLongBreak}

func ParseSessionKind(raw string) (SessionKind, error) {
	switch SessionKind(raw) {
	case KindFocus, KindShortBreak, KindLongBreak:
		return SessionKind(raw), nil
	}
	return "", fmt.Errorf("unknown session kind %q", raw)
}

func (k SessionKind) Title() string {
	switch k {
	case KindFocus:
		return "Focus"
	case KindShortBreak:
		return "Short Break"
	case KindLongBreak:
		return "Long Break"
	}
	panic(fmt.Sprintf("model: unhandled session kind %q", string(k)))
}

type TimerStatus string

const (
	StatusIdle      TimerStatus = "idle"
	StatusRunning   TimerStatus = "running"
	StatusPaused    TimerStatus = "paused"
	StatusCompleted TimerStatus = "completed"
)

// TimerSnapshot is the observable state of one timer at an instant. All fields
// are captured together, so Remaining, Progress and Formatted always agree.
type TimerSnapshot struct {
	Kind            SessionKind  `json:"kind"`
	Status          TimerStatus  `json:"status"`
	TotalMillis     int64        `json:"totalMillis"`
	RemainingMillis int64        `json:"remainingMillis"`
	Progress        float64      `json:"progress"`
	Formatted       string       `json:"formatted"`
	CyclePosition   int          `json:"cyclePosition"`
	CycleLength     int          `json:"cycleLength"`
	FocusCount      int          `json:"focusCount"`
	NextKind        *SessionKind `json:"nextKind,omitempty"`
	StartedAt       *time.Time   `json:"startedAt,omitempty"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
