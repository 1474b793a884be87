package domain

import (
	"errors"
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func TestParseEventTime(t *testing.T) {
	loc := mustLoc(t, "Europe/Moscow")
	got, err := ParseEventTime("2025-05-05", "14:30", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2025, time.May, 5, 14, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected minute precision, got %v", got)
	}
}

func TestParseEventTimeBadInput(t *testing.T) {
	loc := mustLoc(t, "Europe/Moscow")
	cases := []struct{ date, clock string }{
		{"not-a-date", "14:30"},
		{"2025-05-05", "25:00"},
		{"2025-05-05", "half past two"},
		{"", ""},
	}
	for _, c := range cases {
		if _, err := ParseEventTime(c.date, c.clock, loc); !errors.Is(err, ErrValidation) {
			t.Fatalf("(%q, %q): want ErrValidation, got %v", c.date, c.clock, err)
		}
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	loc := mustLoc(t, "Europe/Moscow")
	d, err := ParseDate("2025-12-31", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatDateKey(d); got != "2025-12-31" {
		t.Fatalf("round trip: got %q", got)
	}
	if got := FormatDate(d); got != "31-12-2025" {
		t.Fatalf("display: got %q", got)
	}
}

func TestTriggersFor(t *testing.T) {
	loc := mustLoc(t, "Europe/Moscow")
	ev := Event{ID: 7, Name: "Standup", Time: time.Date(2025, time.May, 5, 9, 0, 0, 0, loc)}
	trs := TriggersFor(ev)

	if trs[0].Kind != KindReminder || trs[1].Kind != KindStart {
		t.Fatalf("unexpected kinds: %v, %v", trs[0].Kind, trs[1].Kind)
	}
	if !trs[0].FireAt.Equal(ev.Time.Add(-time.Hour)) {
		t.Fatalf("reminder at %v, want one hour before %v", trs[0].FireAt, ev.Time)
	}
	if !trs[1].FireAt.Equal(ev.Time) {
		t.Fatalf("start at %v, want %v", trs[1].FireAt, ev.Time)
	}
	for _, tr := range trs {
		if tr.EventID != ev.ID {
			t.Fatalf("trigger bound to event %d, want %d", tr.EventID, ev.ID)
		}
	}
}
