package model

import "time"

// SessionRecord is the immutable log entry written when a focus session
// finishes or is abandoned.
type SessionRecord struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	Kind           SessionKind `json:"kind"`
	PlannedMinutes int         `json:"plannedMinutes"`
	Completed      bool        `json:"completed"`
	StartedAt      time.Time   `json:"startedAt"`
	EndedAt        time.Time   `json:"endedAt"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// FocusMinutes is the whole number of minutes between start and end.
func (r SessionRecord) FocusMinutes() int {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return int(r.EndedAt.Sub(r.StartedAt) / time.Minute)
}

type DailyStats struct {
	Date           string `json:"date" yaml:"date"`
	CompletedFocus int    `json:"completedFocus" yaml:"completed_focus"`
	FocusMinutes   int    `json:"focusMinutes" yaml:"focus_minutes"`
}

type TodayStats struct {
	DailyStats    `yaml:",inline"`
	CyclePosition int `json:"cyclePosition" yaml:"cycle_position"`
	CycleLength   int `json:"cycleLength" yaml:"cycle_length"`
}

type AllTimeStats struct {
	TotalCompletedFocus      int `json:"totalCompletedFocus" yaml:"total_completed_focus"`
	TotalFocusMinutes        int `json:"totalFocusMinutes" yaml:"total_focus_minutes"`
	ActiveDays               int `json:"activeDays" yaml:"active_days"`
	AverageDailyFocusMinutes int `json:"averageDailyFocusMinutes" yaml:"average_daily_focus_minutes"`
}
