package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/lock"
	"github.com/shrimpsizemoose/lussekatt/internal/scoring"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

const (
	publicHelp = `Available commands:
/events - List active events
/help - Show this message`

	adminHelp = `Available commands:
/events - List active events
/standings <event_id> - Current standings per category
/judges <event_id> - Per-judge marking activity
/lock <event_id> - Lock an event (freezes mark entry)
/unlock <event_id> - Unlock an event
/help - Show this message

Examples:
/standings 3
/lock 3`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routePublicCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":  b.handleStart,
		"events": b.handleEvents,
		"help":   b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"standings": b.handleStandings,
		"judges":    b.handleJudges,
		"lock":      b.handleLock,
		"unlock":    b.handleUnlock,
	}
	handler, found := commands[cmd]
	return handler, found
}

// resolveCommand picks the handler for a command, consulting the admin
// routes only for allowlisted senders. A miss means the caller answers
// with help; no command goes unanswered.
func (b *Bot) resolveCommand(cmd string, fromID int64) (commandHandler, bool) {
	if handler, ok := b.routePublicCommands(cmd); ok {
		return handler, true
	}
	if b.admins[fromID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			return handler, true
		}
	}
	return nil, false
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	handler, ok := b.resolveCommand(msg.Command(), msg.From.ID)
	if !ok {
		b.sendHelp(msg.Chat.ID)
		return
	}

	if err := handler(msg); err != nil {
		logger.Error.Printf("Command error: %v", err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = publicHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Send /help for the list of commands.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I report event standings.\n\n"
	if b.admins[msg.From.ID] {
		text += "You are an event admin. Send /help for the list of commands."
	} else {
		text += "Send /events to see what is running."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleEvents(msg *tgbotapi.Message) error {
	events, err := b.store.ListActiveEvents()
	if err != nil {
		return fmt.Errorf("failed to list events: %v", err)
	}

	if len(events) == 0 {
		return b.sendMessage(msg.Chat.ID, "No active events")
	}

	var out strings.Builder
	out.WriteString("Active events:\n\n")
	for _, ev := range events {
		state := "open"
		if ev.IsLocked {
			state = "locked"
		}
		out.WriteString(fmt.Sprintf("🏷 %d: %s (%s, rounds: %d)\n", ev.ID, ev.Name, state, ev.Rounds))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) eventArg(msg *tgbotapi.Message) (int64, error) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return 0, fmt.Errorf("specify an event: /%s <event_id>", msg.Command())
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid event id: %s", args[0])
	}
	return id, nil
}

func (b *Bot) handleStandings(msg *tgbotapi.Message) error {
	eventID, err := b.eventArg(msg)
	if err != nil {
		return err
	}

	ev, err := b.store.GetEvent(eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %d: %v", eventID, err)
	}

	criteria, err := b.store.ListCriteria(eventID)
	if err != nil {
		return fmt.Errorf("failed to load criteria: %v", err)
	}
	participants, err := b.store.ListParticipants(eventID)
	if err != nil {
		return fmt.Errorf("failed to load participants: %v", err)
	}
	marks, err := b.store.ListMarks(store.MarkFilter{EventID: eventID})
	if err != nil {
		return fmt.Errorf("failed to load marks: %v", err)
	}

	if len(participants) == 0 {
		return b.sendMessage(msg.Chat.ID, "No participants registered yet")
	}

	ix := scoring.NewMarkIndex(marks)
	groups := b.engine.Categorize(participants)

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Standings for %s:\n\n", ev.Name))
	for _, group := range groups {
		teams := b.engine.ScoreTeams(group.Teams, criteria, ix, ev.Rounds)
		out.WriteString(fmt.Sprintf("🏁 %s\n", group.Category))
		for _, team := range teams {
			out.WriteString(fmt.Sprintf("%d. %s [%s]: %d\n", team.Rank, teamLabel(team), team.SchoolCode, team.TotalMarks))
		}
		out.WriteString("\n")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func teamLabel(team scoring.Team) string {
	if len(team.Participants) == 1 {
		return team.Participants[0].Name
	}
	return fmt.Sprintf("Team %s (%d members)", team.TeamID, len(team.Participants))
}

func (b *Bot) handleJudges(msg *tgbotapi.Message) error {
	eventID, err := b.eventArg(msg)
	if err != nil {
		return err
	}

	activity, err := b.store.FetchJudgeActivity(eventID)
	if err != nil {
		return fmt.Errorf("failed to load judge activity: %v", err)
	}

	if len(activity) == 0 {
		return b.sendMessage(msg.Chat.ID, "No marks recorded yet")
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Judge activity for event %d:\n\n", eventID))
	for _, a := range activity {
		out.WriteString(fmt.Sprintf("⚖️ %s: %d mark(s), %d participant(s)\n", a.JudgeName, a.MarkCount, a.Participants))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleLock(msg *tgbotapi.Message) error {
	return b.setLock(msg, true)
}

func (b *Bot) handleUnlock(msg *tgbotapi.Message) error {
	return b.setLock(msg, false)
}

func (b *Bot) setLock(msg *tgbotapi.Message, locked bool) error {
	eventID, err := b.eventArg(msg)
	if err != nil {
		return err
	}

	ev, err := b.store.GetEvent(eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %d: %v", eventID, err)
	}

	admin := msg.From.UserName
	if admin == "" {
		admin = strconv.FormatInt(msg.From.ID, 10)
	}

	next, changed := lock.FromEvent(ev).Transition(locked, "tg:"+admin, time.Now().UTC())
	if !changed {
		state := "unlocked"
		if locked {
			state = "locked"
		}
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("Event %d is already %s", eventID, state))
	}

	if err := b.store.UpdateEventLock(eventID, next.Locked, next.By, next.At); err != nil {
		return fmt.Errorf("failed to update lock: %v", err)
	}

	if locked {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🔒 Event %d locked, mark entry is frozen", eventID))
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🔓 Event %d unlocked", eventID))
}
