package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

func trigger(eventID int64, kind domain.TriggerKind, fireAt time.Time) domain.Trigger {
	return domain.Trigger{EventID: eventID, Kind: kind, FireAt: fireAt}
}

func TestScheduleFiresOnce(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var fired int32
	done := make(chan struct{})
	ok := s.Schedule(trigger(1, domain.KindStart, time.Now().Add(20*time.Millisecond)), "Standup",
		func(eventID int64, name string) {
			if eventID != 1 || name != "Standup" {
				t.Errorf("callback got (%d, %q)", eventID, name)
			}
			if atomic.AddInt32(&fired, 1) == 1 {
				close(done)
			}
		})
	if !ok {
		t.Fatal("future trigger was not registered")
	}
	if !s.Pending(1, domain.KindStart) {
		t.Fatal("trigger not pending after Schedule")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger never fired")
	}

	// entry is removed on fire; give the map update a moment
	time.Sleep(20 * time.Millisecond)
	if s.Pending(1, domain.KindStart) {
		t.Fatal("trigger still pending after firing")
	}
	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Fatalf("fired %d times, want 1", n)
	}
}

func TestSchedulePastDeadlineDropped(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	ok := s.Schedule(trigger(1, domain.KindReminder, time.Now().Add(-time.Minute)), "Standup",
		func(int64, string) { t.Error("past trigger fired") })
	if ok {
		t.Fatal("past trigger was registered")
	}
	if s.Pending(1, domain.KindReminder) {
		t.Fatal("past trigger pending")
	}
	time.Sleep(50 * time.Millisecond)
}

func TestSchedulePastDeadlineWithFixedClock(t *testing.T) {
	base := time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC)
	s := New(zap.NewNop(), WithClock(func() time.Time { return base }))
	defer s.Stop()

	if s.Schedule(trigger(1, domain.KindReminder, base), "Standup", func(int64, string) {}) {
		t.Fatal("deadline equal to now must be dropped")
	}
	if !s.Schedule(trigger(1, domain.KindStart, base.Add(time.Minute)), "Standup", func(int64, string) {}) {
		t.Fatal("future deadline must be registered")
	}
}

func TestCancelAllPreventsFiring(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var fired int32
	for _, kind := range []domain.TriggerKind{domain.KindReminder, domain.KindStart} {
		s.Schedule(trigger(1, kind, time.Now().Add(30*time.Millisecond)), "Standup",
			func(int64, string) { atomic.AddInt32(&fired, 1) })
	}
	s.CancelAll(1)

	time.Sleep(100 * time.Millisecond)
	if n := atomic.LoadInt32(&fired); n != 0 {
		t.Fatalf("cancelled triggers fired %d times", n)
	}
	if s.Pending(1, domain.KindReminder) || s.Pending(1, domain.KindStart) {
		t.Fatal("triggers pending after CancelAll")
	}
}

func TestCallbackPanicIsIsolated(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	s.Schedule(trigger(1, domain.KindStart, time.Now().Add(10*time.Millisecond)), "Bad",
		func(int64, string) {
			defer wg.Done()
			panic("dispatcher blew up")
		})

	fired := make(chan struct{})
	s.Schedule(trigger(2, domain.KindStart, time.Now().Add(40*time.Millisecond)), "Good",
		func(int64, string) { close(fired) })

	wg.Wait()
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("unrelated trigger affected by panicking callback")
	}
}

func TestScheduleReplacesExisting(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var first, second int32
	s.Schedule(trigger(1, domain.KindStart, time.Now().Add(30*time.Millisecond)), "Old",
		func(int64, string) { atomic.AddInt32(&first, 1) })
	done := make(chan struct{})
	s.Schedule(trigger(1, domain.KindStart, time.Now().Add(60*time.Millisecond)), "New",
		func(_ int64, name string) {
			if name == "New" {
				atomic.AddInt32(&second, 1)
			}
			close(done)
		})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement trigger never fired")
	}
	if atomic.LoadInt32(&first) != 0 {
		t.Fatal("replaced trigger still fired")
	}
	if atomic.LoadInt32(&second) != 1 {
		t.Fatal("replacement trigger did not fire with new payload")
	}
}
