package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Apply PRAGMAs and run migrations.
	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
// foreign_keys=ON is load-bearing: deletion cascades depend on it.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertUser inserts a user iff absent. An existing row keeps its
// display name: first write wins.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, id int64, displayName string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, displayName,
	)
	return err
}

// GetUser returns a user by id, or domain.ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, display_name FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateEvent persists the event and enrolls the creator as the first
// participant in one transaction, so an event never exists without its creator.
func (r *SQLiteRepo) CreateEvent(ctx context.Context, name string, at time.Time, creatorID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO events (name, time, creator_id) VALUES (?, ?, ?)`,
		name, at.UTC().Unix(), creatorID,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert event: %v", domain.ErrIntegrity, err)
	}
	eventID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO participants (event_id, user_id) VALUES (?, ?)`,
		eventID, creatorID,
	); err != nil {
		return 0, fmt.Errorf("%w: enroll creator: %v", domain.ErrIntegrity, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return eventID, nil
}

// GetEvent returns an event by id, or domain.ErrNotFound.
func (r *SQLiteRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	var (
		ev   domain.Event
		unix int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, time, creator_id FROM events WHERE id = ?`,
		id,
	).Scan(&ev.ID, &ev.Name, &unix, &ev.CreatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: event %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	ev.Time = time.Unix(unix, 0).UTC()
	return &ev, nil
}

// ListEvents returns all events ordered by time.
func (r *SQLiteRepo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return r.queryEvents(ctx, `
		SELECT id, name, time, creator_id FROM events ORDER BY time ASC`)
}

// ListEventsByCreator returns the events created by the given user, ordered by time.
func (r *SQLiteRepo) ListEventsByCreator(ctx context.Context, creatorID int64) ([]domain.Event, error) {
	return r.queryEvents(ctx, `
		SELECT id, name, time, creator_id FROM events
		WHERE creator_id = ? ORDER BY time ASC`,
		creatorID)
}

func (r *SQLiteRepo) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Event
	for rows.Next() {
		var (
			ev   domain.Event
			unix int64
		)
		if err := rows.Scan(&ev.ID, &ev.Name, &unix, &ev.CreatorID); err != nil {
			return nil, err
		}
		ev.Time = time.Unix(unix, 0).UTC()
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteEvent removes the event row. Participant and blocked rows cascade
// via foreign keys.
func (r *SQLiteRepo) DeleteEvent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}

// AddParticipant enrolls a user into an event. The engine checks membership
// first, so a duplicate or dangling reference surfaces as ErrIntegrity.
func (r *SQLiteRepo) AddParticipant(ctx context.Context, eventID, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (event_id, user_id) VALUES (?, ?)`,
		eventID, userID,
	); err != nil {
		return fmt.Errorf("%w: add participant (event %d, user %d): %v",
			domain.ErrIntegrity, eventID, userID, err)
	}
	return nil
}

// RemoveParticipant removes a membership row if present.
func (r *SQLiteRepo) RemoveParticipant(ctx context.Context, eventID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM participants WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	)
	return err
}

// IsParticipant reports whether the user is currently enrolled in the event.
func (r *SQLiteRepo) IsParticipant(ctx context.Context, eventID, userID int64) (bool, error) {
	return r.exists(ctx, `
		SELECT 1 FROM participants WHERE event_id = ? AND user_id = ?`,
		eventID, userID)
}

// ListParticipants returns active members of the event with their display
// names, excluding users blocked on that event.
func (r *SQLiteRepo) ListParticipants(ctx context.Context, eventID int64) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.display_name
		FROM users u
		JOIN participants p ON p.user_id = u.id
		WHERE p.event_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM blocked_participants b
			WHERE b.event_id = p.event_id AND b.user_id = u.id
		  )
		ORDER BY u.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.DisplayName); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// BlockParticipant bars a user from rejoining the event. Blocking twice is a no-op.
func (r *SQLiteRepo) BlockParticipant(ctx context.Context, eventID, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO blocked_participants (event_id, user_id) VALUES (?, ?)
		ON CONFLICT(event_id, user_id) DO NOTHING`,
		eventID, userID,
	); err != nil {
		return fmt.Errorf("%w: block participant (event %d, user %d): %v",
			domain.ErrIntegrity, eventID, userID, err)
	}
	return nil
}

// IsBlocked reports whether the user is barred from the event.
func (r *SQLiteRepo) IsBlocked(ctx context.Context, eventID, userID int64) (bool, error) {
	return r.exists(ctx, `
		SELECT 1 FROM blocked_participants WHERE event_id = ? AND user_id = ?`,
		eventID, userID)
}

// AddSavedDate stores a calendar date for a user. Returns false when the
// date is already present; the duplicate insert changes nothing.
func (r *SQLiteRepo) AddSavedDate(ctx context.Context, userID int64, date time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_dates (user_id, date) VALUES (?, ?)
		ON CONFLICT(user_id, date) DO NOTHING`,
		userID, date.UTC().Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSavedDates returns a user's saved dates in ascending order.
func (r *SQLiteRepo) ListSavedDates(ctx context.Context, userID int64) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date FROM saved_dates WHERE user_id = ? ORDER BY date ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []time.Time
	for rows.Next() {
		var unix int64
		if err := rows.Scan(&unix); err != nil {
			return nil, err
		}
		res = append(res, time.Unix(unix, 0).UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteSavedDate removes a stored date, reporting whether it existed.
func (r *SQLiteRepo) DeleteSavedDate(ctx context.Context, userID int64, date time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM saved_dates WHERE user_id = ? AND date = ?`,
		userID, date.UTC().Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
