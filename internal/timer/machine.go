package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pomodoro/timerd/internal/model"
)

// ErrInvalidTransition is returned for a command the current status does not
// permit. The machine is left unchanged.
var ErrInvalidTransition = errors.New("invalid timer transition")

// Outcome describes the side effects a transition asks its host to perform.
type Outcome struct {
	// Record is set when a focus session finished or was abandoned and must be
	// persisted.
	Record *model.SessionRecord
	// Completed is set when the machine entered StatusCompleted.
	Completed bool
	// Natural distinguishes a countdown reaching zero from a skip.
	Natural bool
	// Kind is the kind of the session the transition ended.
	Kind model.SessionKind
}

// Machine is the synchronous timer state machine. It is not safe for
// concurrent use; Timer serialises access to it.
type Machine struct {
	userID   string
	rule     LongBreakRule
	now      func() time.Time
	settings model.TimerSettings
	// session holds the settings captured when the current countdown started.
	session model.TimerSettings

	kind      model.SessionKind
	status    model.TimerStatus
	total     int64
	remaining int64
	counters  Counters
	next      *model.SessionKind
	startedAt *time.Time
	updatedAt time.Time
}

type MachineOption func(*Machine)

func WithRule(rule LongBreakRule) MachineOption {
	return func(m *Machine) {
		if rule != nil {
			m.rule = rule
		}
	}
}

func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine returns an idle focus timer sized from settings.
func NewMachine(userID string, settings model.TimerSettings, options ...MachineOption) *Machine {
	m := &Machine{
		userID: userID,
		rule:   ThresholdRule,
		now:    time.Now,
		kind:   model.KindFocus,
		status: model.StatusIdle,
	}
	for _, option := range options {
		option(m)
	}
	m.settings = settings.Clamped()
	m.session = m.settings
	m.resetDuration()
	m.updatedAt = m.now().UTC()
	return m
}

func (m *Machine) Status() model.TimerStatus { return m.status }

func (m *Machine) Kind() model.SessionKind { return m.kind }

func (m *Machine) Settings() model.TimerSettings { return m.settings }

func (m *Machine) Snapshot() model.TimerSnapshot {
	snapshot := model.TimerSnapshot{
		Kind:            m.kind,
		Status:          m.status,
		TotalMillis:     m.total,
		RemainingMillis: m.remaining,
		Progress:        Progress(m.total, m.remaining),
		Formatted:       FormatClock(m.remaining),
		CyclePosition:   m.counters.CyclePosition,
		CycleLength:     m.settings.CycleLength,
		FocusCount:      m.counters.FocusCount,
		UpdatedAt:       m.updatedAt,
	}
	if m.next != nil {
		next := *m.next
		snapshot.NextKind = &next
	}
	if m.startedAt != nil {
		startedAt := *m.startedAt
		snapshot.StartedAt = &startedAt
	}
	return snapshot
}

// ApplySettings stores the latest settings. The displayed duration follows
// them only while idle; a countdown in flight keeps its original length.
func (m *Machine) ApplySettings(settings model.TimerSettings) {
	m.settings = settings.Clamped()
	if m.status == model.StatusIdle {
		m.session = m.settings
		m.resetDuration()
		m.touch()
	}
}

// Start begins a countdown of the given kind from Idle or Completed.
func (m *Machine) Start(kind model.SessionKind) (Outcome, error) {
	if m.status != model.StatusIdle && m.status != model.StatusCompleted {
		return Outcome{}, m.invalid("start")
	}

	now := m.now().UTC()
	m.kind = kind
	m.session = m.settings
	m.resetDuration()
	if kind == model.KindLongBreak {
		m.counters.CyclePosition = 0
	}
	m.next = nil
	m.status = model.StatusRunning
	m.startedAt = &now
	m.updatedAt = now
	return Outcome{}, nil
}

func (m *Machine) Pause() error {
	if m.status != model.StatusRunning {
		return m.invalid("pause")
	}
	m.status = model.StatusPaused
	m.touch()
	return nil
}

func (m *Machine) Resume() error {
	if m.status != model.StatusPaused {
		return m.invalid("resume")
	}
	m.status = model.StatusRunning
	m.touch()
	return nil
}

// Tick advances a running countdown by one step and completes it at zero.
func (m *Machine) Tick() (Outcome, error) {
	if m.status != model.StatusRunning {
		return Outcome{}, m.invalid("tick")
	}
	m.remaining = max(m.remaining-TickMillis, 0)
	m.touch()
	if m.remaining > 0 {
		return Outcome{}, nil
	}
	return m.complete(true), nil
}

// Stop abandons a running or paused countdown and returns to Idle with the
// duration re-derived from the latest settings.
func (m *Machine) Stop() (Outcome, error) {
	if m.status != model.StatusRunning && m.status != model.StatusPaused {
		return Outcome{}, m.invalid("stop")
	}

	outcome := Outcome{Kind: m.kind}
	if m.kind == model.KindFocus && m.startedAt != nil {
		record := m.record(false)
		outcome.Record = &record
	}

	m.status = model.StatusIdle
	m.startedAt = nil
	m.next = nil
	m.session = m.settings
	m.resetDuration()
	m.touch()
	return outcome, nil
}

// Skip completes a running or paused countdown immediately.
func (m *Machine) Skip() (Outcome, error) {
	if m.status != model.StatusRunning && m.status != model.StatusPaused {
		return Outcome{}, m.invalid("skip")
	}
	return m.complete(false), nil
}

// Advance leaves Completed for Idle on the kind chosen at completion time.
func (m *Machine) Advance() error {
	if m.status != model.StatusCompleted || m.next == nil {
		return m.invalid("advance")
	}
	m.kind = *m.next
	m.next = nil
	if m.kind == model.KindLongBreak {
		m.counters.CyclePosition = 0
	}
	m.status = model.StatusIdle
	m.session = m.settings
	m.resetDuration()
	m.touch()
	return nil
}

// ChangeKind switches the idle timer to another kind. A running or paused
// session is stopped first and recorded as incomplete.
func (m *Machine) ChangeKind(kind model.SessionKind) (Outcome, error) {
	var outcome Outcome
	if m.status == model.StatusRunning || m.status == model.StatusPaused {
		stopped, err := m.Stop()
		if err != nil {
			return Outcome{}, err
		}
		outcome = stopped
	}

	m.kind = kind
	m.status = model.StatusIdle
	m.next = nil
	m.startedAt = nil
	m.session = m.settings
	m.resetDuration()
	m.touch()
	return outcome, nil
}

func (m *Machine) complete(natural bool) Outcome {
	kind := m.kind
	outcome := Outcome{Completed: true, Natural: natural, Kind: kind}

	switch kind {
	case model.KindFocus:
		if m.startedAt != nil {
			record := m.record(natural)
			outcome.Record = &record
		}
		m.counters.CyclePosition++
		m.counters.FocusCount++
	case model.KindLongBreak:
		m.counters.CyclePosition = 0
	case model.KindShortBreak:
	}

	next := NextKind(kind, m.counters, m.settings.CycleLength, m.rule)
	m.next = &next
	m.status = model.StatusCompleted
	m.remaining = 0
	m.startedAt = nil
	m.touch()
	return outcome
}

func (m *Machine) record(completed bool) model.SessionRecord {
	now := m.now().UTC()
	startedAt := now
	if m.startedAt != nil {
		startedAt = *m.startedAt
	}
	return model.SessionRecord{
		ID:             uuid.NewString(),
		UserID:         m.userID,
		Kind:           m.kind,
		PlannedMinutes: max(m.session.Minutes(m.kind), 1),
		Completed:      completed,
		StartedAt:      startedAt,
		EndedAt:        now,
		CreatedAt:      now,
	}
}

func (m *Machine) resetDuration() {
	m.total = DurationMillis(m.kind, m.session)
	m.remaining = m.total
}

func (m *Machine) touch() {
	m.updatedAt = m.now().UTC()
}

func (m *Machine) invalid(command string) error {
	return fmt.Errorf("%s while %s: %w", command, m.status, ErrInvalidTransition)
}
