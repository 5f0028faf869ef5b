package timer

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"pomodoro/timerd/internal/model"
)

// SettingsSource yields the current settings of a user.
type SettingsSource interface {
	Get(ctx context.Context, userID string) model.TimerSettings
}

// Registry keeps one authoritative Timer per user, created on first use.
type Registry struct {
	mu       sync.Mutex
	timers   map[string]*Timer
	settings SettingsSource
	recorder Recorder
	opts     Options
	logger   logrus.FieldLogger
	closed   bool
}

func NewRegistry(settings SettingsSource, recorder Recorder, opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		timers:   make(map[string]*Timer),
		settings: settings,
		recorder: recorder,
		opts:     opts,
		logger:   opts.Logger.WithField("component", "timer_registry"),
	}
}

// Get returns the user's timer, creating an idle one from the user's current
// settings when none exists.
func (r *Registry) Get(ctx context.Context, userID string) (*Timer, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if t, ok := r.timers[userID]; ok {
		r.mu.Unlock()
		return t, nil
	}
	r.mu.Unlock()

	settings := r.settings.Get(ctx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if t, ok := r.timers[userID]; ok {
		return t, nil
	}
	t := New(userID, settings, r.recorder, r.opts)
	r.timers[userID] = t
	r.logger.WithField("user_id", userID).Info("timer created")
	return t, nil
}

// Lookup returns the user's timer without creating one.
func (r *Registry) Lookup(userID string) (*Timer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[userID]
	return t, ok
}

// Apply hands new settings to a live timer. Users without a timer pick the
// settings up when it is created.
func (r *Registry) Apply(userID string, settings model.TimerSettings) {
	if t, ok := r.Lookup(userID); ok {
		t.ApplySettings(settings)
	}
}

// Refresh re-reads settings for every live timer.
func (r *Registry) Refresh(ctx context.Context) {
	r.mu.Lock()
	live := make(map[string]*Timer, len(r.timers))
	for userID, t := range r.timers {
		live[userID] = t
	}
	r.mu.Unlock()

	for userID, t := range live {
		t.ApplySettings(r.settings.Get(ctx, userID))
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Close tears down every timer. In-progress countdowns are discarded; pending
// record writes finish first.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	timers := r.timers
	r.timers = make(map[string]*Timer)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range timers {
		wg.Add(1)
		go func(t *Timer) {
			defer wg.Done()
			t.Close()
		}(t)
	}
	wg.Wait()
	r.logger.WithField("timers", len(timers)).Info("timer registry closed")
}
