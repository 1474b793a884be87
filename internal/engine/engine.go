package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/domain"
	"github.com/gric11/TG-MeetBOT/internal/scheduler"
	"github.com/gric11/TG-MeetBOT/internal/store"
)

// JoinStatus is the outcome of a join attempt that is not an error.
type JoinStatus int

const (
	// Joined means the user was added as a participant.
	Joined JoinStatus = iota
	// AlreadyMember means the user was a participant before the call.
	AlreadyMember
)

// LeaveStatus is the outcome of a leave attempt.
type LeaveStatus int

const (
	// Left means the membership was removed.
	Left LeaveStatus = iota
	// NotMember means the user was not a participant to begin with.
	NotMember
)

// DateStatus is the outcome of a saved-date mutation.
type DateStatus int

const (
	DateAdded DateStatus = iota
	DateExists
	DateDeleted
	DateNotFound
)

// Engine validates and applies event lifecycle operations against the store
// and keeps the trigger scheduler in sync. All times are interpreted in one
// canonical timezone at minute precision.
type Engine struct {
	repo     store.Repo
	sched    *scheduler.Scheduler
	notifier Notifier
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine bound to its store, scheduler and notifier.
func New(repo store.Repo, sched *scheduler.Scheduler, notifier Notifier, log *zap.Logger, loc *time.Location, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		sched:    sched,
		notifier: notifier,
		log:      log,
		loc:      loc,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Location returns the canonical timezone events are scheduled in.
func (e *Engine) Location() *time.Location { return e.loc }

// RegisterUser records a user on first contact. Calling it again never
// changes the stored display name.
func (e *Engine) RegisterUser(ctx context.Context, id int64, displayName string) error {
	return e.repo.UpsertUser(ctx, id, displayName)
}

// GetUser returns a user by id.
func (e *Engine) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return e.repo.GetUser(ctx, id)
}

// CreateEvent validates the date and time text, persists the event with the
// creator enrolled, and registers its reminder and start triggers. Triggers
// whose deadline is already past are skipped; an event created less than an
// hour ahead simply never gets a reminder.
func (e *Engine) CreateEvent(ctx context.Context, name, dateText, timeText string, creatorID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty event name", domain.ErrValidation)
	}
	at, err := domain.ParseEventTime(dateText, timeText, e.loc)
	if err != nil {
		return 0, err
	}
	if !at.After(e.now()) {
		return 0, fmt.Errorf("%w: event time %s is not in the future",
			domain.ErrValidation, domain.FormatEventTime(at))
	}

	eventID, err := e.repo.CreateEvent(ctx, name, at, creatorID)
	if err != nil {
		return 0, err
	}
	e.scheduleTriggers(domain.Event{ID: eventID, Name: name, Time: at, CreatorID: creatorID})

	e.log.Info("event created",
		zap.Int64("eventID", eventID),
		zap.String("name", name),
		zap.Time("time", at),
		zap.Int64("creatorID", creatorID),
	)
	return eventID, nil
}

// scheduleTriggers registers the reminder and start deadlines of an event.
// Past deadlines are dropped by the scheduler.
func (e *Engine) scheduleTriggers(ev domain.Event) {
	for _, tr := range domain.TriggersFor(ev) {
		switch tr.Kind {
		case domain.KindReminder:
			e.sched.Schedule(tr, ev.Name, e.OnReminderFire)
		case domain.KindStart:
			e.sched.Schedule(tr, ev.Name, e.OnStartFire)
		}
	}
}

// GetEvent returns an event by id.
func (e *Engine) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return e.repo.GetEvent(ctx, id)
}

// ListEvents returns all scheduled events.
func (e *Engine) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return e.repo.ListEvents(ctx)
}

// ListEventsByCreator returns the events the given user created.
func (e *Engine) ListEventsByCreator(ctx context.Context, creatorID int64) ([]domain.Event, error) {
	return e.repo.ListEventsByCreator(ctx, creatorID)
}

// ListParticipants returns the active participants of an event, excluding
// blocked users.
func (e *Engine) ListParticipants(ctx context.Context, eventID int64) ([]domain.User, error) {
	return e.repo.ListParticipants(ctx, eventID)
}

// JoinEvent enrolls a user into an event. A blocked user gets ErrForbidden;
// joining twice is reported as AlreadyMember, not an error.
func (e *Engine) JoinEvent(ctx context.Context, eventID, userID int64) (JoinStatus, error) {
	if _, err := e.repo.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}
	blocked, err := e.repo.IsBlocked(ctx, eventID, userID)
	if err != nil {
		return 0, err
	}
	if blocked {
		return 0, fmt.Errorf("%w: user %d is blocked on event %d", domain.ErrForbidden, userID, eventID)
	}
	member, err := e.repo.IsParticipant(ctx, eventID, userID)
	if err != nil {
		return 0, err
	}
	if member {
		return AlreadyMember, nil
	}
	if err := e.repo.AddParticipant(ctx, eventID, userID); err != nil {
		return 0, err
	}
	return Joined, nil
}

// LeaveEvent removes a user's own membership. Leaving an event the user is
// not part of is a no-op reported as NotMember. Self-removal never blocks.
func (e *Engine) LeaveEvent(ctx context.Context, eventID, userID int64) (LeaveStatus, error) {
	member, err := e.repo.IsParticipant(ctx, eventID, userID)
	if err != nil {
		return 0, err
	}
	if !member {
		return NotMember, nil
	}
	if err := e.repo.RemoveParticipant(ctx, eventID, userID); err != nil {
		return 0, err
	}
	return Left, nil
}

// RemoveParticipantByCreator removes a participant and permanently bars them
// from rejoining, then notifies them out of band. The block stays until the
// event itself is deleted.
func (e *Engine) RemoveParticipantByCreator(ctx context.Context, eventID, targetUserID int64) error {
	ev, err := e.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := e.repo.RemoveParticipant(ctx, eventID, targetUserID); err != nil {
		return err
	}
	if err := e.repo.BlockParticipant(ctx, eventID, targetUserID); err != nil {
		return err
	}
	e.notifyOne(targetUserID, removedText(ev.Name))
	e.log.Info("participant removed and blocked",
		zap.Int64("eventID", eventID),
		zap.Int64("userID", targetUserID),
	)
	return nil
}

// DeleteEvent cancels an event early. The name and participant list are
// captured before the row is deleted so the cancellation notice reflects
// pre-deletion state.
func (e *Engine) DeleteEvent(ctx context.Context, eventID int64) error {
	ev, err := e.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	members, err := e.repo.ListParticipants(ctx, eventID)
	if err != nil {
		return err
	}
	if err := e.repo.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	e.sched.CancelAll(eventID)
	e.notifyAll(members, cancelledText(ev.Name))

	e.log.Info("event deleted",
		zap.Int64("eventID", eventID),
		zap.String("name", ev.Name),
		zap.Int("notified", len(members)),
	)
	return nil
}

// AddSavedDate stores a personal calendar date. Duplicates are reported as
// DateExists, not an error.
func (e *Engine) AddSavedDate(ctx context.Context, userID int64, dateText string) (DateStatus, error) {
	d, err := domain.ParseDate(dateText, e.loc)
	if err != nil {
		return 0, err
	}
	added, err := e.repo.AddSavedDate(ctx, userID, d)
	if err != nil {
		return 0, err
	}
	if !added {
		return DateExists, nil
	}
	return DateAdded, nil
}

// ListSavedDates returns a user's personal calendar dates.
func (e *Engine) ListSavedDates(ctx context.Context, userID int64) ([]time.Time, error) {
	return e.repo.ListSavedDates(ctx, userID)
}

// DeleteSavedDate removes a personal calendar date.
func (e *Engine) DeleteSavedDate(ctx context.Context, userID int64, dateText string) (DateStatus, error) {
	d, err := domain.ParseDate(dateText, e.loc)
	if err != nil {
		return 0, err
	}
	deleted, err := e.repo.DeleteSavedDate(ctx, userID, d)
	if err != nil {
		return 0, err
	}
	if !deleted {
		return DateNotFound, nil
	}
	return DateDeleted, nil
}
