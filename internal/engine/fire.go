package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

// Trigger callbacks run on the scheduler's timers, detached from any request
// context. They read the participant list at the instant of firing, so
// membership stays dynamic up to the deadline. An event that was deleted
// while its timer was in flight yields an empty list and the callback
// becomes a no-op.

// OnReminderFire notifies current participants that the event starts in one
// hour.
func (e *Engine) OnReminderFire(eventID int64, eventName string) {
	ctx := context.Background()
	members, err := e.repo.ListParticipants(ctx, eventID)
	if err != nil {
		e.log.Error("reminder: list participants failed",
			zap.Int64("eventID", eventID), zap.Error(err))
		return
	}
	if len(members) == 0 {
		e.log.Info("reminder: no participants, nothing to send",
			zap.Int64("eventID", eventID))
		return
	}
	e.notifyAll(members, reminderText(eventName))
	e.log.Info("reminder sent",
		zap.Int64("eventID", eventID),
		zap.Int("recipients", len(members)),
	)
}

// OnStartFire notifies current participants that the event has started, then
// deletes the event. This is the sole automatic cleanup path for events that
// run to completion.
func (e *Engine) OnStartFire(eventID int64, eventName string) {
	ctx := context.Background()
	members, err := e.repo.ListParticipants(ctx, eventID)
	if err != nil {
		e.log.Error("start: list participants failed",
			zap.Int64("eventID", eventID), zap.Error(err))
		return
	}
	e.notifyAll(members, startedText(eventName))

	if err := e.repo.DeleteEvent(ctx, eventID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		e.log.Error("start: delete event failed",
			zap.Int64("eventID", eventID), zap.Error(err))
		return
	}
	e.sched.CancelAll(eventID)
	e.log.Info("event started and purged",
		zap.Int64("eventID", eventID),
		zap.Int("recipients", len(members)),
	)
}

// Restore re-derives pending triggers from stored events after a restart.
// In-memory timers do not survive the process; still-future deadlines are
// registered again and past-due ones are never fired late. Events whose time
// has fully passed are left for SweepExpired.
func (e *Engine) Restore(ctx context.Context) error {
	events, err := e.repo.ListEvents(ctx)
	if err != nil {
		return err
	}
	registered := 0
	for _, ev := range events {
		for _, tr := range domain.TriggersFor(ev) {
			switch tr.Kind {
			case domain.KindReminder:
				if e.sched.Schedule(tr, ev.Name, e.OnReminderFire) {
					registered++
				}
			case domain.KindStart:
				if e.sched.Schedule(tr, ev.Name, e.OnStartFire) {
					registered++
				}
			}
		}
	}
	e.log.Info("triggers restored",
		zap.Int("events", len(events)),
		zap.Int("registered", registered),
	)
	return nil
}

// SweepExpired garbage-collects events whose time has passed without a
// pending start trigger, so missed starts (for example across a restart)
// do not accumulate forever. Swept events are purged silently: their start
// deadline was missed and is never fired late.
func (e *Engine) SweepExpired(ctx context.Context) {
	events, err := e.repo.ListEvents(ctx)
	if err != nil {
		e.log.Error("sweep: list events failed", zap.Error(err))
		return
	}
	now := e.now()
	for _, ev := range events {
		if ev.Time.After(now) {
			continue
		}
		if e.sched.Pending(ev.ID, domain.KindStart) {
			// the start trigger is about to handle it
			continue
		}
		if err := e.repo.DeleteEvent(ctx, ev.ID); err != nil {
			e.log.Error("sweep: delete event failed",
				zap.Int64("eventID", ev.ID), zap.Error(err))
			continue
		}
		e.sched.CancelAll(ev.ID)
		e.log.Info("expired event swept",
			zap.Int64("eventID", ev.ID),
			zap.String("name", ev.Name),
			zap.Time("time", ev.Time),
		)
	}
}
