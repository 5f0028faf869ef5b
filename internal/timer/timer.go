package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pomodoro/timerd/internal/events"
	"pomodoro/timerd/internal/model"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("timer closed")

const saveFailedMessage = "failed to save session"

// Recorder persists finished or abandoned focus sessions.
type Recorder interface {
	SaveSession(ctx context.Context, record model.SessionRecord) error
}

type EventType string

const (
	EventSnapshot         EventType = "snapshot"
	EventSessionCompleted EventType = "session_completed"
	EventMessage          EventType = "message"
)

// Event is what subscribers of a timer receive.
type Event struct {
	Type             EventType            `json:"type"`
	Snapshot         *model.TimerSnapshot `json:"snapshot,omitempty"`
	Kind             model.SessionKind    `json:"kind,omitempty"`
	SoundEnabled     bool                 `json:"soundEnabled,omitempty"`
	VibrationEnabled bool                 `json:"vibrationEnabled,omitempty"`
	Message          string               `json:"message,omitempty"`
}

// Ticker is the subset of *time.Ticker the tick loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.Ticker.C }

func NewRealTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type Options struct {
	TickInterval     time.Duration
	AutoAdvanceDelay time.Duration
	SaveTimeout      time.Duration
	NewTicker        func(time.Duration) Ticker
	Rule             LongBreakRule
	Now              func() time.Time
	Logger           logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.AutoAdvanceDelay < 0 {
		o.AutoAdvanceDelay = 0
	}
	if o.SaveTimeout <= 0 {
		o.SaveTimeout = 5 * time.Second
	}
	if o.NewTicker == nil {
		o.NewTicker = NewRealTicker
	}
	if o.Rule == nil {
		o.Rule = ThresholdRule
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// Timer hosts one Machine: it owns the tick loop, persists records through the
// Recorder and broadcasts every change to its subscribers.
type Timer struct {
	mu       sync.Mutex
	machine  *Machine
	recorder Recorder
	bus      *events.Bus[Event]
	logger   logrus.FieldLogger
	opts     Options

	loopGen    uint64
	cancelLoop context.CancelFunc
	advance    *time.Timer
	advanceGen uint64
	writes     sync.WaitGroup
	closed     bool
}

func New(userID string, settings model.TimerSettings, recorder Recorder, opts Options) *Timer {
	opts = opts.withDefaults()
	logger := opts.Logger.WithFields(logrus.Fields{"component": "timer", "user_id": userID})
	return &Timer{
		machine:  NewMachine(userID, settings, WithRule(opts.Rule), WithClock(opts.Now)),
		recorder: recorder,
		bus:      events.New[Event](events.WithLogger[Event](logger)),
		logger:   logger,
		opts:     opts,
	}
}

// Subscribe returns a handle on the timer's event stream. The first event is
// always the current snapshot.
func (t *Timer) Subscribe() *events.Subscription[Event] {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.machine.Snapshot()
	return t.bus.SubscribeWith(Event{Type: EventSnapshot, Snapshot: &snapshot})
}

func (t *Timer) Snapshot() model.TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.machine.Snapshot()
}

func (t *Timer) Settings() model.TimerSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.machine.Settings()
}

func (t *Timer) ApplySettings(settings model.TimerSettings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.machine.ApplySettings(settings)
	t.publishSnapshotLocked()
}

func (t *Timer) Start(kind model.SessionKind) (model.TimerSnapshot, error) {
	return t.command("start", func() error {
		if _, err := t.machine.Start(kind); err != nil {
			return err
		}
		t.cancelAdvanceLocked()
		t.startLoopLocked()
		return nil
	})
}

func (t *Timer) Pause() (model.TimerSnapshot, error) {
	return t.command("pause", func() error {
		if err := t.machine.Pause(); err != nil {
			return err
		}
		t.stopLoopLocked()
		return nil
	})
}

func (t *Timer) Resume() (model.TimerSnapshot, error) {
	return t.command("resume", func() error {
		if err := t.machine.Resume(); err != nil {
			return err
		}
		t.startLoopLocked()
		return nil
	})
}

func (t *Timer) Stop() (model.TimerSnapshot, error) {
	return t.command("stop", func() error {
		outcome, err := t.machine.Stop()
		if err != nil {
			return err
		}
		t.stopLoopLocked()
		t.persistLocked(outcome.Record)
		return nil
	})
}

func (t *Timer) Skip() (model.TimerSnapshot, error) {
	return t.command("skip", func() error {
		outcome, err := t.machine.Skip()
		if err != nil {
			return err
		}
		t.stopLoopLocked()
		t.finishLocked(outcome)
		return nil
	})
}

func (t *Timer) ChangeKind(kind model.SessionKind) (model.TimerSnapshot, error) {
	return t.command("change kind", func() error {
		outcome, err := t.machine.ChangeKind(kind)
		if err != nil {
			return err
		}
		t.stopLoopLocked()
		t.cancelAdvanceLocked()
		t.persistLocked(outcome.Record)
		return nil
	})
}

// Close cancels the tick loop and any pending auto-advance, waits for record
// writes in flight and closes every subscription.
func (t *Timer) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.stopLoopLocked()
	t.cancelAdvanceLocked()
	t.mu.Unlock()

	t.writes.Wait()
	t.bus.Close()
}

func (t *Timer) command(name string, apply func() error) (model.TimerSnapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.machine.Snapshot(), ErrClosed
	}
	if err := apply(); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			t.logger.WithError(err).Debug("timer command ignored")
		}
		return t.machine.Snapshot(), err
	}
	t.logger.WithField("command", name).Debug("timer command applied")
	t.publishSnapshotLocked()
	return t.machine.Snapshot(), nil
}

func (t *Timer) startLoopLocked() {
	t.stopLoopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	t.cancelLoop = cancel
	gen := t.loopGen
	ticker := t.opts.NewTicker(t.opts.TickInterval)
	go t.run(ctx, gen, ticker)
}

func (t *Timer) stopLoopLocked() {
	t.loopGen++
	if t.cancelLoop != nil {
		t.cancelLoop()
		t.cancelLoop = nil
	}
}

func (t *Timer) run(ctx context.Context, gen uint64, ticker Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !t.tick(gen) {
				return
			}
		}
	}
}

func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || gen != t.loopGen {
		return false
	}
	outcome, err := t.machine.Tick()
	if err != nil {
		return false
	}
	if !outcome.Completed {
		t.publishSnapshotLocked()
		return true
	}
	t.stopLoopLocked()
	t.finishLocked(outcome)
	return false
}

// finishLocked handles a transition into Completed: it persists the record,
// emits the completion cues and schedules the auto-advance.
func (t *Timer) finishLocked(outcome Outcome) {
	t.persistLocked(outcome.Record)
	t.publishSnapshotLocked()

	if outcome.Natural {
		settings := t.machine.Settings()
		t.bus.Publish(Event{
			Type:             EventSessionCompleted,
			Kind:             outcome.Kind,
			SoundEnabled:     settings.SoundEnabled,
			VibrationEnabled: settings.VibrationEnabled,
		})
		t.bus.Publish(Event{Type: EventMessage, Message: CompletionMessage(outcome.Kind)})
	}
	t.logger.WithFields(logrus.Fields{
		"kind":    outcome.Kind,
		"natural": outcome.Natural,
	}).Info("session finished")

	t.cancelAdvanceLocked()
	if t.opts.AutoAdvanceDelay == 0 {
		t.advanceLocked()
		return
	}
	gen := t.advanceGen
	t.advance = time.AfterFunc(t.opts.AutoAdvanceDelay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.closed || gen != t.advanceGen {
			return
		}
		t.advance = nil
		t.advanceLocked()
	})
}

func (t *Timer) advanceLocked() {
	if err := t.machine.Advance(); err != nil {
		return
	}
	t.publishSnapshotLocked()
}

func (t *Timer) cancelAdvanceLocked() {
	t.advanceGen++
	if t.advance != nil {
		t.advance.Stop()
		t.advance = nil
	}
}

func (t *Timer) persistLocked(record *model.SessionRecord) {
	if record == nil || t.recorder == nil {
		return
	}
	saved := *record
	t.writes.Add(1)
	go func() {
		defer t.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), t.opts.SaveTimeout)
		defer cancel()
		if err := t.recorder.SaveSession(ctx, saved); err != nil {
			t.logger.WithError(err).WithField("session_id", saved.ID).Error("save session")
			t.bus.Publish(Event{Type: EventMessage, Message: saveFailedMessage})
		}
	}()
}

func (t *Timer) publishSnapshotLocked() {
	snapshot := t.machine.Snapshot()
	t.bus.Publish(Event{Type: EventSnapshot, Snapshot: &snapshot})
}
