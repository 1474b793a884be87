package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

// Callback is invoked when a trigger's deadline elapses. It receives the
// event id and the event name captured at scheduling time.
type Callback func(eventID int64, eventName string)

type key struct {
	eventID int64
	kind    domain.TriggerKind
}

// Scheduler is an in-process one-shot timer registry keyed by
// (eventID, kind). Timers do not survive restarts; the engine re-derives
// pending triggers from the store at startup and registers them again.
type Scheduler struct {
	log *zap.Logger
	now func() time.Time

	mu     sync.Mutex
	timers map[key]*time.Timer
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates an empty Scheduler.
func New(log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		log:    log,
		now:    time.Now,
		timers: make(map[key]*time.Timer),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule registers fn to run once when tr.FireAt elapses. A deadline that
// is not strictly in the future is dropped, never fired immediately: replays
// of long-passed events must not cause a notification storm. Returns whether
// the trigger was registered.
//
// Scheduling the same (event, kind) again replaces the previous timer.
func (s *Scheduler) Schedule(tr domain.Trigger, eventName string, fn Callback) bool {
	delay := tr.FireAt.Sub(s.now())
	if delay <= 0 {
		s.log.Debug("trigger already past, skipping",
			zap.Int64("eventID", tr.EventID),
			zap.String("kind", string(tr.Kind)),
			zap.Time("fireAt", tr.FireAt),
		)
		return false
	}

	k := key{eventID: tr.EventID, kind: tr.Kind}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[k]; ok {
		old.Stop()
	}
	s.timers[k] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, k)
		s.mu.Unlock()
		s.fire(k, eventName, fn)
	})

	s.log.Info("trigger registered",
		zap.Int64("eventID", tr.EventID),
		zap.String("kind", string(tr.Kind)),
		zap.Time("fireAt", tr.FireAt),
	)
	return true
}

// fire runs one callback, isolating failures: a panic in one trigger must
// not take down the timers of unrelated events.
func (s *Scheduler) fire(k key, eventName string, fn Callback) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("trigger callback panicked",
				zap.Int64("eventID", k.eventID),
				zap.String("kind", string(k.kind)),
				zap.Any("panic", r),
			)
		}
	}()
	fn(k.eventID, eventName)
}

// CancelAll removes both pending triggers for an event. A trigger that has
// already fired, or is firing concurrently, is unaffected; its callback must
// tolerate the event being gone.
func (s *Scheduler) CancelAll(eventID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range []domain.TriggerKind{domain.KindReminder, domain.KindStart} {
		k := key{eventID: eventID, kind: kind}
		if t, ok := s.timers[k]; ok {
			t.Stop()
			delete(s.timers, k)
		}
	}
}

// Pending reports whether a trigger is still registered for (eventID, kind).
func (s *Scheduler) Pending(eventID int64, kind domain.TriggerKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key{eventID: eventID, kind: kind}]
	return ok
}

// Stop cancels every pending timer. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.timers {
		t.Stop()
		delete(s.timers, k)
	}
}
