package domain

import "time"

// TriggerKind distinguishes the two one-shot deadlines of an event.
type TriggerKind string

const (
	// KindReminder fires one hour before the event time.
	KindReminder TriggerKind = "reminder"
	// KindStart fires at the event time and is followed by event deletion.
	KindStart TriggerKind = "start"
)

// ReminderLead is how long before the event time the reminder fires.
const ReminderLead = time.Hour

// Trigger is a pending one-shot deadline for an event. Triggers are derived
// from Event rows, never stored.
type Trigger struct {
	EventID int64
	Kind    TriggerKind
	FireAt  time.Time
}

// TriggersFor derives both triggers of an event, reminder first.
func TriggersFor(ev Event) [2]Trigger {
	return [2]Trigger{
		{EventID: ev.ID, Kind: KindReminder, FireAt: ev.Time.Add(-ReminderLead)},
		{EventID: ev.ID, Kind: KindStart, FireAt: ev.Time},
	}
}
