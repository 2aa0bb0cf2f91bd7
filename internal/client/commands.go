package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// BurnMillis is how long a /burn message stays visible.
const BurnMillis = 10000

type ActionKind int

const (
	// ActionSend sends Text as a chat message.
	ActionSend ActionKind = iota
	// ActionPoll creates a poll from Question and Options.
	ActionPoll
	// ActionClear wipes the local history of the current room.
	ActionClear
	// ActionNotice only shows Text locally.
	ActionNotice
	// ActionUsers shows the member list.
	ActionUsers
	ActionJoinPublic
	ActionJoin
	ActionCreate
	ActionLeave
	ActionInvite
	ActionAccept
	ActionDecline
	ActionVote
)

type Action struct {
	Kind     ActionKind
	Text     string
	Question string
	Options  []string

	Name   string
	RoomID string
	Secret string
	Target string
	PollID string
	Index  int
}

const helpText = `Available commands:
  /clear              clear local chat
  /poll Q | A | B     create a poll
  /roll [max]         roll a dice
  /shrug              send a shrug
  /burn <msg>         send a message that deletes in 10s
  /users              show who is here
  /public <name>      join the public room
  /join <room> <password> <name>
  /create <room> <password> <name>
  /leave              leave the current room
  /dm <user id>       invite someone to a direct chat
  /accept <user id>   accept a direct chat invite
  /decline <user id>  dismiss a direct chat invite
  /vote <poll id> <option number>`

// ParseInput turns one input line into an action. intn picks dice rolls.
func ParseInput(line string, intn func(int) int) Action {
	if !strings.HasPrefix(line, "/") {
		return Action{Kind: ActionSend, Text: line}
	}
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case "/clear":
		return Action{Kind: ActionClear}
	case "/roll":
		limit := 100
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			limit = n
		}
		return Action{Kind: ActionSend, Text: fmt.Sprintf("🎲 I rolled a **%d** (1-%d)", intn(limit)+1, limit)}
	case "/shrug":
		return Action{Kind: ActionSend, Text: `¯\_(ツ)_/¯`}
	case "/burn":
		if rest == "" {
			return Action{Kind: ActionNotice, Text: "Usage: /burn <message>"}
		}
		return Action{Kind: ActionSend, Text: fmt.Sprintf("🔥 [Self-destructing] %s ||ephemeral|%d||", rest, BurnMillis)}
	case "/poll":
		parts := lo.Compact(lo.Map(strings.Split(rest, "|"), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
		if len(parts) < 3 {
			return Action{Kind: ActionNotice, Text: "Usage: /poll Question | Option 1 | Option 2 ..."}
		}
		return Action{Kind: ActionPoll, Question: parts[0], Options: parts[1:]}
	case "/users":
		return Action{Kind: ActionUsers}
	case "/public":
		if rest == "" {
			return usage("/public <name>")
		}
		return Action{Kind: ActionJoinPublic, Name: rest}
	case "/join", "/create":
		fields := strings.Fields(rest)
		if len(fields) < 3 {
			return usage(command + " <room> <password> <name>")
		}
		kind := ActionJoin
		if strings.EqualFold(command, "/create") {
			kind = ActionCreate
		}
		return Action{Kind: kind, RoomID: fields[0], Secret: fields[1], Name: strings.Join(fields[2:], " ")}
	case "/leave":
		return Action{Kind: ActionLeave}
	case "/dm", "/accept", "/decline":
		if rest == "" {
			return usage(command + " <user id>")
		}
		kind := map[string]ActionKind{"/dm": ActionInvite, "/accept": ActionAccept, "/decline": ActionDecline}[strings.ToLower(command)]
		return Action{Kind: kind, Target: rest}
	case "/vote":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return usage("/vote <poll id> <option number>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return usage("/vote <poll id> <option number>")
		}
		return Action{Kind: ActionVote, PollID: fields[0], Index: n - 1}
	case "/help":
		return Action{Kind: ActionNotice, Text: helpText}
	default:
		return Action{Kind: ActionNotice, Text: "Unknown command. Try /help"}
	}
}

func usage(form string) Action {
	return Action{Kind: ActionNotice, Text: "Usage: " + form}
}
