package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/domain"
	"github.com/gric11/TG-MeetBOT/internal/engine"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, _ = r.bot.Send(msg)
}

func (r *Router) answerCallback(id, text string) {
	if id == "" {
		// internal refresh, no callback to answer
		return
	}
	_, _ = r.bot.Request(tgbotapi.NewCallback(id, text))
}

func (r *Router) alertCallback(id, text string) {
	_, _ = r.bot.Request(tgbotapi.NewCallbackWithAlert(id, text))
}

// --- Registration ---

// handleStart registers the user and shows the main menu. Accounts without a
// Telegram username are asked for a display name first.
func (r *Router) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.UserName

	if username == "" {
		r.setPending(chatID, &pending{state: pendingName})
		r.sendText(chatID, askNameText)
		return
	}
	if err := r.core.RegisterUser(ctx, userID, username); err != nil {
		r.log.Error("register user failed", zap.Error(err))
		r.sendText(chatID, genericErrorText)
		return
	}
	r.sendWithKeyboard(chatID, welcomeText, mainMenuKeyboard())
}

// --- Free-form dispatcher (conversational flows) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	p := r.getPending(chatID)
	if p == nil {
		// No pending flow: ignore free-form message
		return
	}

	switch p.state {
	case pendingName:
		r.clearPending(chatID)
		if err := r.core.RegisterUser(ctx, chatID, text); err != nil {
			r.log.Error("register user failed", zap.Error(err))
			r.sendText(chatID, genericErrorText)
			return
		}
		r.sendWithKeyboard(chatID, registeredText, mainMenuKeyboard())

	case pendingEventName:
		if text == "" {
			r.sendText(chatID, askEventNameText)
			return
		}
		r.setPending(chatID, &pending{state: pendingEventDate, eventName: text})
		r.sendText(chatID, askEventDateText)

	case pendingEventDate:
		// format check here so a bad date does not drag into the time step
		if _, err := domain.ParseDate(text, r.core.Location()); err != nil {
			r.sendText(chatID, badDateText)
			return
		}
		r.setPending(chatID, &pending{state: pendingEventTime, eventName: p.eventName, eventDate: text})
		r.sendText(chatID, askEventTimeText)

	case pendingEventTime:
		eventID, err := r.core.CreateEvent(ctx, p.eventName, p.eventDate, text, chatID)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				r.sendText(chatID, badEventTimeText)
				return // stay in the time step
			}
			r.log.Error("create event failed", zap.Error(err))
			r.sendText(chatID, genericErrorText)
			r.clearPending(chatID)
			return
		}
		r.clearPending(chatID)
		ev, err := r.core.GetEvent(ctx, eventID)
		if err != nil {
			r.log.Error("read back event failed", zap.Error(err))
			r.sendWithKeyboard(chatID, genericErrorText, mainMenuKeyboard())
			return
		}
		r.sendWithKeyboard(chatID,
			fmt.Sprintf(eventCreatedFmt, ev.Name, domain.FormatEventTime(ev.Time.In(r.core.Location()))),
			mainMenuKeyboard())

	case pendingCalendarDate:
		st, err := r.core.AddSavedDate(ctx, chatID, text)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				r.sendText(chatID, badDateText)
				return
			}
			r.log.Error("add saved date failed", zap.Error(err))
			r.sendText(chatID, genericErrorText)
			r.clearPending(chatID)
			return
		}
		r.clearPending(chatID)
		switch st {
		case engine.DateAdded:
			r.sendText(chatID, dateAddedText)
		case engine.DateExists:
			r.sendText(chatID, dateExistsText)
		}
		r.sendCalendar(ctx, chatID)
	}
}

// --- Main menu ---

func (r *Router) showMainMenu(chatID int64, cbID string) {
	r.answerCallback(cbID, "")
	r.clearPending(chatID)
	r.sendWithKeyboard(chatID, menuPromptText, mainMenuKeyboard())
}

// --- Event creation ---

func (r *Router) handleCreateEventButton(chatID int64, cbID string) {
	r.answerCallback(cbID, "")
	r.setPending(chatID, &pending{state: pendingEventName})
	r.sendText(chatID, askEventNameText)
}

// --- Event lists and details ---

func (r *Router) handleListEvents(ctx context.Context, chatID int64, cbID string) {
	events, err := r.core.ListEvents(ctx)
	if err != nil {
		r.log.Error("list events failed", zap.Error(err))
		r.alertCallback(cbID, genericErrorText)
		return
	}
	if len(events) == 0 {
		r.alertCallback(cbID, noEventsText)
		return
	}
	r.answerCallback(cbID, "")
	r.sendWithKeyboard(chatID, eventListTitle, eventListKeyboard(events, "event:"))
}

func (r *Router) showEventDetails(ctx context.Context, chatID, eventID int64, cbID string) {
	r.answerCallback(cbID, "")
	ev, err := r.core.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, eventGoneText)
			return
		}
		r.log.Error("get event failed", zap.Error(err))
		r.sendText(chatID, genericErrorText)
		return
	}
	members, err := r.core.ListParticipants(ctx, eventID)
	if err != nil {
		r.log.Error("list participants failed", zap.Error(err))
		r.sendText(chatID, genericErrorText)
		return
	}
	creatorName := fmt.Sprintf("id %d", ev.CreatorID)
	if creator, err := r.core.GetUser(ctx, ev.CreatorID); err == nil {
		creatorName = creator.DisplayName
	}

	body := fmt.Sprintf(eventDetailsFmt,
		ev.Name,
		domain.FormatEventTime(ev.Time.In(r.core.Location())),
		creatorName,
		participantList(members),
	)
	r.sendWithKeyboard(chatID, body, eventDetailsKeyboard(eventID))
}

func (r *Router) handleJoin(ctx context.Context, chatID, eventID, userID int64, cbID string) {
	st, err := r.core.JoinEvent(ctx, eventID, userID)
	switch {
	case errors.Is(err, domain.ErrForbidden):
		r.alertCallback(cbID, blockedText)
		return
	case errors.Is(err, domain.ErrNotFound):
		r.alertCallback(cbID, eventGoneText)
		return
	case err != nil:
		r.log.Error("join failed", zap.Error(err))
		r.alertCallback(cbID, genericErrorText)
		return
	}
	if st == engine.AlreadyMember {
		r.answerCallback(cbID, alreadyMemberText)
	} else {
		r.answerCallback(cbID, joinedText)
	}
	r.showEventDetails(ctx, chatID, eventID, "")
}

func (r *Router) handleLeave(ctx context.Context, chatID, eventID, userID int64, cbID string) {
	st, err := r.core.LeaveEvent(ctx, eventID, userID)
	if err != nil {
		r.log.Error("leave failed", zap.Error(err))
		r.alertCallback(cbID, genericErrorText)
		return
	}
	if st == engine.NotMember {
		r.answerCallback(cbID, notMemberText)
	} else {
		r.answerCallback(cbID, leftText)
	}
	r.showEventDetails(ctx, chatID, eventID, "")
}

// --- Creator's own events ---

func (r *Router) handleMyEvents(ctx context.Context, chatID, userID int64, cbID string) {
	events, err := r.core.ListEventsByCreator(ctx, userID)
	if err != nil {
		r.log.Error("list my events failed", zap.Error(err))
		r.alertCallback(cbID, genericErrorText)
		return
	}
	if len(events) == 0 {
		r.alertCallback(cbID, noMyEventsText)
		return
	}
	r.answerCallback(cbID, "")
	r.sendWithKeyboard(chatID, myEventListTitle, eventListKeyboard(events, "my_event:"))
}

func (r *Router) showMyEventDetails(ctx context.Context, chatID, eventID int64, cbID string) {
	r.answerCallback(cbID, "")
	ev, err := r.core.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, eventGoneText)
			return
		}
		r.log.Error("get event failed", zap.Error(err))
		r.sendText(chatID, genericErrorText)
		return
	}
	members, err := r.core.ListParticipants(ctx, eventID)
	if err != nil {
		r.log.Error("list participants failed", zap.Error(err))
		r.sendText(chatID, genericErrorText)
		return
	}

	body := fmt.Sprintf(myEventDetailsFmt,
		ev.Name,
		domain.FormatEventTime(ev.Time.In(r.core.Location())),
		participantList(members),
	)
	r.sendWithKeyboard(chatID, body, myEventKeyboard(eventID, members))
}

func (r *Router) handleDeleteEvent(ctx context.Context, chatID, eventID int64, cbID string) {
	if err := r.core.DeleteEvent(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.alertCallback(cbID, eventGoneText)
			return
		}
		r.log.Error("delete event failed", zap.Error(err))
		r.alertCallback(cbID, genericErrorText)
		return
	}
	r.answerCallback(cbID, "")
	r.sendWithKeyboard(chatID, eventDeletedText, mainMenuKeyboard())
}

func (r *Router) handleRemoveParticipant(ctx context.Context, chatID, eventID, targetID int64, cbID string) {
	if err := r.core.RemoveParticipantByCreator(ctx, eventID, targetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.alertCallback(cbID, eventGoneText)
			return
		}
		r.log.Error("remove participant failed", zap.Error(err))
		r.alertCallback(cbID, genericErrorText)
		return
	}
	r.answerCallback(cbID, participantRemovedText)
	r.showMyEventDetails(ctx, chatID, eventID, "")
}

// --- Personal calendar ---

// The bot works in private chats, where the chat id doubles as the user id;
// calendar operations key on it directly.
func (r *Router) handleMyCalendar(ctx context.Context, chatID int64, cbID string) {
	r.answerCallback(cbID, "")
	r.sendCalendar(ctx, chatID)
}

func (r *Router) sendCalendar(ctx context.Context, chatID int64) {
	dates, err := r.core.ListSavedDates(ctx, chatID)
	if err != nil {
		r.log.Error("list saved dates failed", zap.Error(err))
		r.sendText(chatID, genericErrorText)
		return
	}
	r.sendWithKeyboard(chatID, calendarTitle, calendarKeyboard(dates, r.core.Location()))
}

func (r *Router) handleAddDateButton(chatID int64, cbID string) {
	r.answerCallback(cbID, "")
	r.setPending(chatID, &pending{state: pendingCalendarDate})
	r.sendText(chatID, askDateText)
}

func (r *Router) showManageDate(chatID int64, dateKey string, cbID string) {
	r.answerCallback(cbID, "")
	r.sendWithKeyboard(chatID, fmt.Sprintf(manageDateFmt, dateKey), manageDateKeyboard(dateKey))
}

func (r *Router) handleDeleteDate(ctx context.Context, chatID, userID int64, dateKey string, cbID string) {
	st, err := r.core.DeleteSavedDate(ctx, userID, dateKey)
	if err != nil {
		r.log.Error("delete saved date failed", zap.Error(err))
		r.alertCallback(cbID, genericErrorText)
		return
	}
	r.answerCallback(cbID, "")
	if st == engine.DateNotFound {
		r.sendText(chatID, dateNotFoundText)
	} else {
		r.sendText(chatID, dateDeletedText)
	}
	r.sendCalendar(ctx, chatID)
}

// participantList renders members one per line, for details messages.
func participantList(members []domain.User) string {
	if len(members) == 0 {
		return noParticipantsText
	}
	lines := make([]string, 0, len(members))
	for _, m := range members {
		lines = append(lines, "- @"+m.DisplayName)
	}
	return strings.Join(lines, "\n")
}
