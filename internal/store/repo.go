package store

import (
	"context"
	"time"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

// Repo defines storage operations for users, events, participants and
// saved dates. Every call is atomic on its own; no cross-call transactions.
type Repo interface {
	// UpsertUser inserts the user iff absent. First write wins: an existing
	// row is never overwritten.
	UpsertUser(ctx context.Context, id int64, displayName string) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	// CreateEvent persists the event and enrolls the creator as its first
	// participant in one transaction.
	CreateEvent(ctx context.Context, name string, at time.Time, creatorID int64) (int64, error)
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ListEventsByCreator(ctx context.Context, creatorID int64) ([]domain.Event, error)
	// DeleteEvent removes the event row; participant and blocked rows
	// cascade with it.
	DeleteEvent(ctx context.Context, id int64) error

	AddParticipant(ctx context.Context, eventID, userID int64) error
	RemoveParticipant(ctx context.Context, eventID, userID int64) error
	IsParticipant(ctx context.Context, eventID, userID int64) (bool, error)
	// ListParticipants returns active members of the event, excluding
	// blocked users.
	ListParticipants(ctx context.Context, eventID int64) ([]domain.User, error)

	BlockParticipant(ctx context.Context, eventID, userID int64) error
	IsBlocked(ctx context.Context, eventID, userID int64) (bool, error)

	// AddSavedDate reports false when the (user, date) pair already exists;
	// the duplicate insert is a no-op, not an error.
	AddSavedDate(ctx context.Context, userID int64, date time.Time) (bool, error)
	ListSavedDates(ctx context.Context, userID int64) ([]time.Time, error)
	// DeleteSavedDate reports false when no such date was stored.
	DeleteSavedDate(ctx context.Context, userID int64, date time.Time) (bool, error)

	Close() error
}
