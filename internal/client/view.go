package client

import (
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Entry is one visible line of the current room.
type Entry struct {
	Kind       string
	Message    *domain.Message
	Poll       *domain.Poll
	System     string
	ReceivedAt time.Time
}

// Invite is a pending direct message request.
type Invite struct {
	FromID   string
	FromName string
}

// Sender emits one event to the server.
type Sender func(name string, payload any) error

// View applies server events to the visible state of the client and keeps
// the session history in step.
type View struct {
	mu      sync.Mutex
	session *Session
	sched   *Scheduler
	send    Sender
	now     func() time.Time

	name    string
	color   string
	roomID  string
	entries []Entry
	users   []domain.Member
	typing  map[string]struct{}
	invites []Invite
	lastErr string

	// OnChange runs after every applied event, outside the lock.
	OnChange func()
}

func NewView(session *Session, send Sender, now func() time.Time) *View {
	if now == nil {
		now = time.Now
	}
	v := &View{session: session, send: send, now: now, typing: make(map[string]struct{})}
	v.sched = NewScheduler(v.expire)
	return v
}

// ExpectName sets the name sent with the next join and persisted once it succeeds.
func (v *View) ExpectName(name string) {
	v.mu.Lock()
	v.name = name
	v.mu.Unlock()
}

func (v *View) Apply(env protocol.Envelope) error {
	if err := v.apply(env); err != nil {
		log.Warn().Err(err).Str("module", "client.view").Str("type", env.Type).Msg("bad event")
		return err
	}
	if v.OnChange != nil {
		v.OnChange()
	}
	return nil
}

func (v *View) apply(env protocol.Envelope) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	switch env.Type {
	case protocol.Color:
		return env.Unmarshal(&v.color)
	case protocol.RoomJoined:
		var p protocol.RoomJoinedPayload
		if err := env.Unmarshal(&p); err != nil {
			return err
		}
		v.enterLocked(p.RoomID, now)
		// Resync presence on every entry, reconnects included.
		if v.send != nil {
			return v.send(protocol.RequestUsers, nil)
		}
	case protocol.RoomUsers:
		var users []domain.Member
		if err := env.Unmarshal(&users); err != nil {
			return err
		}
		v.users = users
	case protocol.UserTyping, protocol.UserStopTyping:
		var p protocol.TypingPayload
		if err := env.Unmarshal(&p); err != nil {
			return err
		}
		if env.Type == protocol.UserTyping {
			v.typing[p.Name] = struct{}{}
		} else {
			delete(v.typing, p.Name)
		}
	case protocol.SystemMessage:
		var text string
		if err := env.Unmarshal(&text); err != nil {
			return err
		}
		v.entries = append(v.entries, Entry{Kind: env.Type, System: text, ReceivedAt: now})
		if strings.HasSuffix(text, " joined the room") {
			v.recordLocked(env, now)
		}
	case protocol.ChatMessage:
		var msg domain.Message
		if err := env.Unmarshal(&msg); err != nil {
			return err
		}
		if !v.showMessageLocked(msg, now, now) {
			return nil
		}
		v.recordLocked(env, now)
	case protocol.MessageDeleted:
		var id domain.MessageID
		if err := env.Unmarshal(&id); err != nil {
			return err
		}
		v.sched.Cancel(id)
		v.removeLocked(id)
	case protocol.NewPoll:
		var poll domain.Poll
		if err := env.Unmarshal(&poll); err != nil {
			return err
		}
		v.entries = append(v.entries, Entry{Kind: env.Type, Poll: &poll, ReceivedAt: now})
		v.recordLocked(env, now)
	case protocol.UpdatePoll:
		var p protocol.UpdatePollPayload
		if err := env.Unmarshal(&p); err != nil {
			return err
		}
		v.patchPollLocked(p)
		v.recordLocked(env, now)
	case protocol.DMRequestReceive:
		var p protocol.DMRequestReceivedPayload
		if err := env.Unmarshal(&p); err != nil {
			return err
		}
		if !slices.ContainsFunc(v.invites, func(i Invite) bool { return i.FromID == p.FromID }) {
			v.invites = append(v.invites, Invite{FromID: p.FromID, FromName: p.FromName})
		}
	case protocol.JoinDMRoom:
		var p protocol.JoinDMRoomPayload
		if err := env.Unmarshal(&p); err != nil {
			return err
		}
		v.invites = nil
		if v.send != nil {
			return v.send(protocol.JoinDM, protocol.JoinDMPayload{RoomID: p.RoomID, Name: v.name})
		}
	case protocol.Error:
		return env.Unmarshal(&v.lastErr)
	case protocol.Pong:
	default:
		log.Debug().Str("module", "client.view").Str("type", env.Type).Msg("ignored event")
	}
	return nil
}

// enterLocked switches rooms and restores what the session kept for the new one.
func (v *View) enterLocked(roomID string, now time.Time) {
	v.sched.Stop()
	v.roomID = roomID
	v.entries = nil
	v.users = nil
	clear(v.typing)
	v.session.Joined(v.name, roomID)

	var expired []domain.MessageID
	for _, h := range v.session.History(roomID) {
		env := protocol.Envelope{Type: h.Type, Data: h.Data}
		switch h.Type {
		case protocol.ChatMessage:
			var msg domain.Message
			if env.Unmarshal(&msg) != nil {
				continue
			}
			if !v.showMessageLocked(msg, h.ReceivedAt, now) {
				expired = append(expired, msg.ID)
			}
		case protocol.NewPoll:
			var poll domain.Poll
			if env.Unmarshal(&poll) == nil {
				v.entries = append(v.entries, Entry{Kind: h.Type, Poll: &poll, ReceivedAt: h.ReceivedAt})
			}
		case protocol.UpdatePoll:
			var p protocol.UpdatePollPayload
			if env.Unmarshal(&p) == nil {
				v.patchPollLocked(p)
			}
		case protocol.SystemMessage:
			var text string
			if env.Unmarshal(&text) == nil {
				v.entries = append(v.entries, Entry{Kind: h.Type, System: text, ReceivedAt: h.ReceivedAt})
			}
		}
	}
	if len(expired) > 0 {
		v.session.Remove(roomID, matchMessages(expired))
	}
}

// showMessageLocked appends msg unless its expiry already passed, scheduling
// the removal of the remaining lifetime otherwise.
func (v *View) showMessageLocked(msg domain.Message, receivedAt, now time.Time) bool {
	if at, ok := msg.ExpiresAt(receivedAt); ok {
		if !now.Before(at) {
			return false
		}
		v.sched.Schedule(msg.ID, at.Sub(now))
	}
	v.entries = append(v.entries, Entry{Kind: protocol.ChatMessage, Message: &msg, ReceivedAt: receivedAt})
	return true
}

func (v *View) patchPollLocked(p protocol.UpdatePollPayload) {
	for _, e := range v.entries {
		if e.Poll != nil && string(e.Poll.ID) == p.PollID {
			e.Poll.Options = p.Options
		}
	}
}

func (v *View) recordLocked(env protocol.Envelope, now time.Time) {
	if v.roomID == "" {
		return
	}
	v.session.Append(v.roomID, HistoryEntry{Type: env.Type, Data: env.Data, ReceivedAt: now})
}

func (v *View) removeLocked(id domain.MessageID) {
	v.entries = slices.DeleteFunc(v.entries, func(e Entry) bool {
		return e.Message != nil && e.Message.ID == id
	})
	if v.roomID != "" {
		v.session.Remove(v.roomID, matchMessages([]domain.MessageID{id}))
	}
}

func (v *View) expire(id domain.MessageID) {
	v.mu.Lock()
	v.removeLocked(id)
	v.mu.Unlock()
	if v.OnChange != nil {
		v.OnChange()
	}
}

// ClearLocal wipes the current room's entries and history.
func (v *View) ClearLocal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sched.Stop()
	v.entries = nil
	if v.roomID != "" {
		v.session.ClearHistory(v.roomID)
	}
}

// Reset returns the view to its initial state, as after an inactivity wipe.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sched.Stop()
	v.name, v.roomID, v.lastErr = "", "", ""
	v.entries, v.users, v.invites = nil, nil, nil
	clear(v.typing)
}

// Decline drops a pending invite locally. The requester is never told.
func (v *View) Decline(fromID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invites = slices.DeleteFunc(v.invites, func(i Invite) bool { return i.FromID == fromID })
}

func (v *View) RoomID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.roomID
}

func (v *View) Color() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.color
}

func (v *View) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.entries)
}

func (v *View) Users() []domain.Member {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.users)
}

func (v *View) Invites() []Invite {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.invites)
}

// Typing lists who is typing, sorted.
func (v *View) Typing() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, 0, len(v.typing))
	for n := range v.typing {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (v *View) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

func matchMessages(ids []domain.MessageID) func(HistoryEntry) bool {
	return func(h HistoryEntry) bool {
		if h.Type != protocol.ChatMessage {
			return false
		}
		var msg struct {
			ID domain.MessageID `json:"id"`
		}
		return json.Unmarshal(h.Data, &msg) == nil && slices.Contains(ids, msg.ID)
	}
}
