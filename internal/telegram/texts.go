package telegram

import (
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gric11/TG-MeetBOT/internal/domain"
)

// UI texts in English
const (
	welcomeText    = "👋 Welcome! Pick an action from the menu:"
	registeredText = "Thanks! You are registered. Pick an action from the menu:"
	askNameText    = "Your Telegram account has no username. Please enter a display name:"
	menuPromptText = "Pick an action:"

	askEventNameText = "Enter the event name:"
	askEventDateText = "Enter the event date (YYYY-MM-DD):"
	askEventTimeText = "Enter the event time (HH:MM):"
	badDateText      = "Invalid date. Expected format: YYYY-MM-DD, for example 2025-05-06."
	badEventTimeText = "Invalid or past time. Enter a future time as HH:MM, for example 14:30."
	eventCreatedFmt  = "Event '%s' scheduled for %s!"

	eventListTitle   = "Available events:"
	myEventListTitle = "Your events:"
	noEventsText     = "There are no events at the moment!"
	noMyEventsText   = "You have not created any events!"
	eventGoneText    = "Event not found."

	eventDetailsFmt    = "Event: %s\nDate: %s\nOrganizer: @%s\n\nParticipants:\n%s"
	myEventDetailsFmt  = "Name: %s\nDate: %s\n\nParticipants:\n%s"
	noParticipantsText = "No participants"

	joinedText        = "You have joined the event!"
	alreadyMemberText = "You are already participating in this event!"
	blockedText       = "You are blocked and cannot join this event."
	leftText          = "You have left the event!"
	notMemberText     = "You are not participating in this event!"

	eventDeletedText       = "Event deleted."
	participantRemovedText = "Participant removed."

	calendarTitle    = "Your calendar:"
	askDateText      = "Enter a date to save (YYYY-MM-DD):"
	dateAddedText    = "Date saved!"
	dateExistsText   = "This date is already saved."
	dateDeletedText  = "Date deleted."
	dateNotFoundText = "Date not found or already deleted."
	manageDateFmt    = "Manage date %s:"

	genericErrorText = "Something went wrong. Please try again."
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Create event", "create_event"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 All events", "list_events"),
			tgbotapi.NewInlineKeyboardButtonData("⭐ My events", "my_events"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 My calendar", "my_calendar"),
		),
	)
}

// eventListKeyboard renders one button per event; prefix selects the detail
// view ("event:" for everyone, "my_event:" for the creator's view).
func eventListKeyboard(events []domain.Event, prefix string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(events)+1)
	for _, ev := range events {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ev.Name, prefix+itoa(ev.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Main menu", "main_menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func eventDetailsKeyboard(eventID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Join", "join:"+itoa(eventID)),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Leave", "leave:"+itoa(eventID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Main menu", "main_menu"),
		),
	)
}

// myEventKeyboard offers a removal button per participant plus event deletion.
func myEventKeyboard(eventID int64, members []domain.User) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(members)+2)
	for _, m := range members {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				"Remove @"+m.DisplayName,
				"remove:"+itoa(eventID)+":"+itoa(m.ID),
			),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete event", "delete_event:"+itoa(eventID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "my_events"),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func calendarKeyboard(dates []time.Time, loc *time.Location) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(dates)+2)
	for _, d := range dates {
		local := d.In(loc)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				domain.FormatDate(local),
				"manage_date:"+domain.FormatDateKey(local),
			),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add date", "add_date"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Main menu", "main_menu"),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func manageDateKeyboard(dateKey string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete date", "delete_date:"+dateKey),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "my_calendar"),
		),
	)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
