package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/engine"
)

// Pending state keys used in conversational flows.
const (
	pendingName         = "await_display_name"
	pendingEventName    = "await_event_name"
	pendingEventDate    = "await_event_date"
	pendingEventTime    = "await_event_time"
	pendingCalendarDate = "await_calendar_date"
)

// pending is the in-memory conversation state of one chat.
type pending struct {
	state     string
	eventName string
	eventDate string
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
// Identifier strings in callback data are parsed here, before anything
// reaches the engine.
type Router struct {
	bot   *tgbotapi.BotAPI
	log   *zap.Logger
	core  *engine.Engine
	state map[int64]*pending
	mu    sync.RWMutex
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, core *engine.Engine) *Router {
	return &Router{
		bot:   bot,
		log:   log,
		core:  core,
		state: make(map[int64]*pending),
	}
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, p *pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = p
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) *pending {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, msg)
		default:
			// Free-form text feeds whatever conversational flow is pending.
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		data := cb.Data
		chatID := cb.Message.Chat.ID
		userID := cb.From.ID

		switch {
		case data == "main_menu":
			r.showMainMenu(chatID, cb.ID)
		case data == "create_event":
			r.handleCreateEventButton(chatID, cb.ID)
		case data == "list_events":
			r.handleListEvents(ctx, chatID, cb.ID)
		case data == "my_events":
			r.handleMyEvents(ctx, chatID, userID, cb.ID)
		case data == "my_calendar":
			r.handleMyCalendar(ctx, chatID, cb.ID)
		case data == "add_date":
			r.handleAddDateButton(chatID, cb.ID)

		case strings.HasPrefix(data, "event:"):
			if id, ok := parseID(data, "event:"); ok {
				r.showEventDetails(ctx, chatID, id, cb.ID)
			}
		case strings.HasPrefix(data, "join:"):
			if id, ok := parseID(data, "join:"); ok {
				r.handleJoin(ctx, chatID, id, userID, cb.ID)
			}
		case strings.HasPrefix(data, "leave:"):
			if id, ok := parseID(data, "leave:"); ok {
				r.handleLeave(ctx, chatID, id, userID, cb.ID)
			}
		case strings.HasPrefix(data, "my_event:"):
			if id, ok := parseID(data, "my_event:"); ok {
				r.showMyEventDetails(ctx, chatID, id, cb.ID)
			}
		case strings.HasPrefix(data, "delete_event:"):
			if id, ok := parseID(data, "delete_event:"); ok {
				r.handleDeleteEvent(ctx, chatID, id, cb.ID)
			}
		case strings.HasPrefix(data, "remove:"):
			if eventID, targetID, ok := parsePair(data, "remove:"); ok {
				r.handleRemoveParticipant(ctx, chatID, eventID, targetID, cb.ID)
			}
		case strings.HasPrefix(data, "manage_date:"):
			r.showManageDate(chatID, strings.TrimPrefix(data, "manage_date:"), cb.ID)
		case strings.HasPrefix(data, "delete_date:"):
			r.handleDeleteDate(ctx, chatID, userID, strings.TrimPrefix(data, "delete_date:"), cb.ID)

		default:
			// Unknown callback — ignore silently
		}
		return
	}
}

// parseID extracts the numeric id from callback data like "join:42".
func parseID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// parsePair extracts two ids from callback data like "remove:42:7".
func parsePair(data, prefix string) (int64, int64, bool) {
	parts := strings.Split(strings.TrimPrefix(data, prefix), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Notifier delivers engine notifications over the Bot API; it satisfies
// engine.Notifier. Delivery failures for unreachable users are the engine's
// to log and swallow.
type Notifier struct{ bot *tgbotapi.BotAPI }

// NewNotifier creates a Notifier on top of a bot connection.
func NewNotifier(bot *tgbotapi.BotAPI) *Notifier {
	return &Notifier{bot: bot}
}

// Notify sends a plain text message to the given user.
func (n *Notifier) Notify(userID int64, text string) error {
	_, err := n.bot.Send(tgbotapi.NewMessage(userID, text))
	return err
}
