package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "meetbot.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUpsertUserFirstWriteWins(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertUser(ctx, 1, "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertUser(ctx, 1, "impostor"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	u, err := repo.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.DisplayName != "alice" {
		t.Fatalf("display name overwritten: got %q", u.DisplayName)
	}
}

func TestGetUserNotFound(t *testing.T) {
	repo := openTestRepo(t)
	if _, err := repo.GetUser(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreateEventEnrollsCreator(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertUser(ctx, 1, "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	at := time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC)
	id, err := repo.CreateEvent(ctx, "Standup", at, 1)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	ev, err := repo.GetEvent(ctx, id)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if ev.Name != "Standup" || !ev.Time.Equal(at) || ev.CreatorID != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}

	members, err := repo.ListParticipants(ctx, id)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(members) != 1 || members[0].ID != 1 {
		t.Fatalf("creator not enrolled: %+v", members)
	}
}

func TestListParticipantsExcludesBlocked(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for id, name := range map[int64]string{1: "alice", 2: "bob"} {
		if err := repo.UpsertUser(ctx, id, name); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}
	evID, err := repo.CreateEvent(ctx, "Standup", time.Now().Add(time.Hour), 1)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := repo.AddParticipant(ctx, evID, 2); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	if err := repo.BlockParticipant(ctx, evID, 2); err != nil {
		t.Fatalf("block: %v", err)
	}
	members, err := repo.ListParticipants(ctx, evID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(members) != 1 || members[0].ID != 1 {
		t.Fatalf("blocked user leaked into participant list: %+v", members)
	}

	blocked, err := repo.IsBlocked(ctx, evID, 2)
	if err != nil || !blocked {
		t.Fatalf("IsBlocked = (%v, %v), want true", blocked, err)
	}
	// blocking again is a no-op
	if err := repo.BlockParticipant(ctx, evID, 2); err != nil {
		t.Fatalf("repeat block: %v", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for id, name := range map[int64]string{1: "alice", 2: "bob"} {
		if err := repo.UpsertUser(ctx, id, name); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}
	evID, err := repo.CreateEvent(ctx, "Standup", time.Now().Add(time.Hour), 1)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := repo.AddParticipant(ctx, evID, 2); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := repo.BlockParticipant(ctx, evID, 2); err != nil {
		t.Fatalf("block: %v", err)
	}

	if err := repo.DeleteEvent(ctx, evID); err != nil {
		t.Fatalf("delete event: %v", err)
	}

	if _, err := repo.GetEvent(ctx, evID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("event survived deletion: %v", err)
	}
	members, err := repo.ListParticipants(ctx, evID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("participant rows survived cascade: %+v", members)
	}
	blocked, err := repo.IsBlocked(ctx, evID, 2)
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if blocked {
		t.Fatal("blocked row survived cascade")
	}
}

func TestAddParticipantDanglingEvent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	if err := repo.UpsertUser(ctx, 1, "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.AddParticipant(ctx, 999, 1); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("want ErrIntegrity, got %v", err)
	}
}

func TestListEventsByCreator(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for id, name := range map[int64]string{1: "alice", 2: "bob"} {
		if err := repo.UpsertUser(ctx, id, name); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}
	base := time.Now().Add(time.Hour).Truncate(time.Minute)
	if _, err := repo.CreateEvent(ctx, "A", base, 1); err != nil {
		t.Fatalf("create A: %v", err)
	}
	if _, err := repo.CreateEvent(ctx, "B", base.Add(time.Hour), 2); err != nil {
		t.Fatalf("create B: %v", err)
	}

	all, err := repo.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 events, got %d", len(all))
	}

	mine, err := repo.ListEventsByCreator(ctx, 1)
	if err != nil {
		t.Fatalf("list by creator: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "A" {
		t.Fatalf("unexpected creator events: %+v", mine)
	}
}

func TestSavedDates(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertUser(ctx, 1, "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	d := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

	added, err := repo.AddSavedDate(ctx, 1, d)
	if err != nil || !added {
		t.Fatalf("first add = (%v, %v), want added", added, err)
	}
	added, err = repo.AddSavedDate(ctx, 1, d)
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if added {
		t.Fatal("duplicate add reported as new")
	}

	dates, err := repo.ListSavedDates(ctx, 1)
	if err != nil {
		t.Fatalf("list dates: %v", err)
	}
	if len(dates) != 1 || !dates[0].Equal(d) {
		t.Fatalf("unexpected dates: %v", dates)
	}

	deleted, err := repo.DeleteSavedDate(ctx, 1, d)
	if err != nil || !deleted {
		t.Fatalf("delete = (%v, %v), want deleted", deleted, err)
	}
	deleted, err = repo.DeleteSavedDate(ctx, 1, d)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatal("second delete reported success")
	}
}
