package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

// Notifier delivers a message to a single user. The engine treats delivery
// as fire-and-forget: a failed recipient is logged and never aborts the
// surrounding operation or the rest of the batch.
type Notifier interface {
	Notify(userID int64, text string) error
}

func reminderText(eventName string) string {
	return fmt.Sprintf("Reminder: event '%s' starts in one hour!", eventName)
}

func startedText(eventName string) string {
	return fmt.Sprintf("Event '%s' has started!", eventName)
}

func cancelledText(eventName string) string {
	return fmt.Sprintf("Event '%s' was cancelled by the organizer.", eventName)
}

func removedText(eventName string) string {
	return fmt.Sprintf("You have been removed from event '%s' and can no longer join it.", eventName)
}

func (e *Engine) notifyOne(userID int64, text string) {
	if err := e.notifier.Notify(userID, text); err != nil {
		e.log.Warn("notification delivery failed",
			zap.Int64("userID", userID),
			zap.Error(err),
		)
	}
}

func (e *Engine) notifyAll(users []domain.User, text string) {
	for _, u := range users {
		e.notifyOne(u.ID, text)
	}
}
