package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	apperrors "pomodoro/timerd/internal/errors"
	"pomodoro/timerd/internal/events"
	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/timer"
)

type Command string

const (
	CommandStart  Command = "start"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandStop   Command = "stop"
	CommandSkip   Command = "skip"
	CommandKind   Command = "kind"
)

// CommandResult reports whether a command changed the timer. A command the
// current status does not allow is not an error: Applied is false and the
// snapshot is the unchanged state.
type CommandResult struct {
	Applied  bool                `json:"applied"`
	Snapshot model.TimerSnapshot `json:"snapshot"`
}

// TimerService is the command and query surface over the per-user timers.
type TimerService struct {
	registry *timer.Registry
	settings *SettingsService
	changes  *events.Subscription[SettingsChange]
	logger   logrus.FieldLogger
}

// NewTimerService subscribes to settings changes right away so that none are
// missed before WatchSettings runs.
func NewTimerService(registry *timer.Registry, settings *SettingsService, logger logrus.FieldLogger) *TimerService {
	return &TimerService{
		registry: registry,
		settings: settings,
		changes:  settings.Observe(),
		logger:   logger.WithField("component", "timer_service"),
	}
}

func (s *TimerService) State(ctx context.Context, userID string) (*model.TimerSnapshot, *apperrors.APIError) {
	t, apiErr := s.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	snapshot := t.Snapshot()
	return &snapshot, nil
}

// Execute runs one command. kind is read by start and kind; an empty kind on
// start means the kind the timer currently shows.
func (s *TimerService) Execute(ctx context.Context, userID string, command Command, kind string) (*CommandResult, *apperrors.APIError) {
	t, apiErr := s.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	var snapshot model.TimerSnapshot
	var err error
	switch command {
	case CommandStart:
		target, apiErr := startKind(t.Snapshot(), kind)
		if apiErr != nil {
			return nil, apiErr
		}
		snapshot, err = t.Start(target)
	case CommandPause:
		snapshot, err = t.Pause()
	case CommandResume:
		snapshot, err = t.Resume()
	case CommandStop:
		snapshot, err = t.Stop()
	case CommandSkip:
		snapshot, err = t.Skip()
	case CommandKind:
		target, apiErr := parseKind(kind)
		if apiErr != nil {
			return nil, apiErr
		}
		snapshot, err = t.ChangeKind(target)
	default:
		return nil, apperrors.BadRequest("invalid_command", "command must be one of start, pause, resume, stop, skip, kind")
	}

	switch {
	case err == nil:
		return &CommandResult{Applied: true, Snapshot: snapshot}, nil
	case errors.Is(err, timer.ErrInvalidTransition):
		return &CommandResult{Applied: false, Snapshot: snapshot}, nil
	case errors.Is(err, timer.ErrClosed):
		return nil, apperrors.Unavailable("timer_unavailable", "timer is shutting down")
	default:
		s.logger.WithError(err).WithField("user_id", userID).Error("timer command")
		return nil, apperrors.Internal("timer command failed").WithCause(err)
	}
}

// Subscribe opens the user's event stream. The first event is the current
// snapshot.
func (s *TimerService) Subscribe(ctx context.Context, userID string) (*events.Subscription[timer.Event], *apperrors.APIError) {
	t, apiErr := s.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return t.Subscribe(), nil
}

// Cycle reports the live cycle position, or zero when the user has no timer.
func (s *TimerService) Cycle(ctx context.Context, userID string) (int, int) {
	if t, ok := s.registry.Lookup(userID); ok {
		snapshot := t.Snapshot()
		return snapshot.CyclePosition, snapshot.CycleLength
	}
	return 0, s.settings.Get(ctx, userID).Clamped().CycleLength
}

// WatchSettings forwards settings changes to live timers until ctx is done.
func (s *TimerService) WatchSettings(ctx context.Context) error {
	defer s.changes.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-s.changes.C():
			if !ok {
				return nil
			}
			if change.UserID == "" {
				s.registry.Refresh(ctx)
				continue
			}
			s.registry.Apply(change.UserID, change.Settings)
		}
	}
}

func (s *TimerService) timer(ctx context.Context, userID string) (*timer.Timer, *apperrors.APIError) {
	t, err := s.registry.Get(ctx, userID)
	if errors.Is(err, timer.ErrClosed) {
		return nil, apperrors.Unavailable("timer_unavailable", "timer is shutting down")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load timer").WithCause(err)
	}
	return t, nil
}

func startKind(current model.TimerSnapshot, raw string) (model.SessionKind, *apperrors.APIError) {
	if raw != "" {
		return parseKind(raw)
	}
	if current.Status == model.StatusCompleted && current.NextKind != nil {
		return *current.NextKind, nil
	}
	return current.Kind, nil
}

func parseKind(raw string) (model.SessionKind, *apperrors.APIError) {
	kind, err := model.ParseSessionKind(raw)
	if err != nil {
		return "", apperrors.BadRequest("invalid_kind", "kind must be one of focus, short_break, long_break")
	}
	return kind, nil
}
