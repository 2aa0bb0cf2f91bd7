package orch

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dkeye/ChatJet/internal/app"
	"github.com/dkeye/ChatJet/internal/core"
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/mocks"
	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recorder is a SignalConnection that keeps every frame it was handed.
type recorder struct {
	frames []protocol.Envelope
	full   bool
	closed bool
}

func (r *recorder) TrySend(f core.Frame) error {
	if r.closed {
		return core.ErrClosed
	}
	if r.full {
		return core.ErrBackpressure
	}
	env, err := protocol.Decode(f)
	if err != nil {
		return err
	}
	r.frames = append(r.frames, env)
	return nil
}

func (r *recorder) Close() { r.closed = true }

func (r *recorder) events(name string) []protocol.Envelope {
	var out []protocol.Envelope
	for _, env := range r.frames {
		if env.Type == name {
			out = append(out, env)
		}
	}
	return out
}

func (r *recorder) last(t *testing.T, name string, v any) {
	t.Helper()
	evs := r.events(name)
	require.NotEmpty(t, evs, "no %q event", name)
	require.NoError(t, evs[len(evs)-1].Unmarshal(v))
}

func (r *recorder) reset() { r.frames = nil }

type harness struct {
	o     *Orchestrator
	conns map[domain.ConnID]*recorder
}

func newHarness(t *testing.T, policy app.Policy) *harness {
	t.Helper()
	ids := 0
	o := New(Options{
		Registry: app.NewRegistry(func(int) int { return 99 }),
		Policy:   policy,
		Now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})
	return &harness{o: o, conns: map[domain.ConnID]*recorder{}}
}

func (h *harness) connect(ids ...domain.ConnID) {
	for _, id := range ids {
		r := &recorder{}
		h.conns[id] = r
		h.o.Dispatch(Connect{ID: id, Signal: r, ClientKey: "ct-" + string(id)})
	}
}

func (h *harness) errorText(t *testing.T, id domain.ConnID) string {
	t.Helper()
	var text string
	h.conns[id].last(t, protocol.Error, &text)
	return text
}

func TestOrchestrator_ConnectSendsColor(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)

	h.connect("a")

	var color string
	h.conns["a"].last(t, protocol.Color, &color)
	req.Equal("rgb(100,100,100)", color)
}

func TestOrchestrator_ConnectWithMockSignal(t *testing.T) {
	ctrl := gomock.NewController(t)
	sig := mocks.NewMockSignalConnection(ctrl)
	o := New(Options{Registry: app.NewRegistry(func(int) int { return 9 })})

	// Then exactly one color frame is sent
	sig.EXPECT().TrySend(gomock.Any()).DoAndReturn(func(f core.Frame) error {
		require.JSONEq(t, `{"type":"color","data":"rgb(20,20,20)"}`, string(f))
		return nil
	}).Times(1)

	o.Dispatch(Connect{ID: "a", Signal: sig})
}

func TestOrchestrator_RoomPollScenario(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")

	// Given A creates r1
	h.o.Dispatch(CreateRoom{ID: "A", Name: "alice", RoomID: "r1", Secret: "pass123"})
	var joined protocol.RoomJoinedPayload
	h.conns["A"].last(t, protocol.RoomJoined, &joined)
	req.Equal(protocol.RoomJoinedPayload{RoomID: "r1", IsCreator: true}, joined)

	// When B joins with the secret
	h.o.Dispatch(JoinRoom{ID: "B", Name: "bob", RoomID: "r1", Secret: "pass123"})

	// Then both see two members and A hears about bob
	for _, id := range []domain.ConnID{"A", "B"} {
		var users []domain.Member
		h.conns[id].last(t, protocol.RoomUsers, &users)
		req.Len(users, 2)
		req.Equal("alice", users[0].Name)
		req.Equal("bob", users[1].Name)
	}
	var sys string
	h.conns["A"].last(t, protocol.SystemMessage, &sys)
	req.Equal("bob joined the room", sys)
	req.Empty(h.conns["B"].events(protocol.SystemMessage))
	h.conns["B"].last(t, protocol.RoomJoined, &joined)
	req.False(joined.IsCreator)

	// When A creates a poll
	h.o.Dispatch(CreatePoll{ID: "A", RoomID: "r1", Question: "Lunch?", Options: []string{"X", "Y"}})
	var poll domain.Poll
	h.conns["B"].last(t, protocol.NewPoll, &poll)
	req.Equal("alice", poll.Creator)
	req.Equal(domain.RoomID("r1"), poll.RoomID)

	// And B votes twice with one voter key
	h.o.Dispatch(VotePoll{ID: "B", PollID: string(poll.ID), OptionIndex: 0, VoterKey: "u-b"})
	for _, id := range []domain.ConnID{"A", "B"} {
		var upd protocol.UpdatePollPayload
		h.conns[id].last(t, protocol.UpdatePoll, &upd)
		req.Equal([]domain.PollOption{{Text: "X", Count: 1}, {Text: "Y", Count: 0}}, upd.Options)
		req.Equal(1, upd.TotalVotes)
	}
	h.o.Dispatch(VotePoll{ID: "B", PollID: string(poll.ID), OptionIndex: 1, VoterKey: "u-b"})

	// Then the total stays at one
	for _, id := range []domain.ConnID{"A", "B"} {
		var upd protocol.UpdatePollPayload
		h.conns[id].last(t, protocol.UpdatePoll, &upd)
		req.Equal([]domain.PollOption{{Text: "X", Count: 0}, {Text: "Y", Count: 1}}, upd.Options)
		req.Equal(1, upd.TotalVotes)
	}
}

func TestOrchestrator_JoinErrorsGoToCallerOnly(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")
	h.o.Dispatch(CreateRoom{ID: "A", Name: "alice", RoomID: "team1", Secret: "abcd"})
	h.conns["A"].reset()

	h.o.Dispatch(JoinRoom{ID: "B", Name: "bob", RoomID: "team1", Secret: "wrong"})
	req.Equal("Incorrect password", h.errorText(t, "B"))
	req.Empty(h.conns["A"].frames)

	h.o.Dispatch(JoinRoom{ID: "B", Name: "bob", RoomID: "nope", Secret: "abcd"})
	req.Equal("Room does not exist", h.errorText(t, "B"))

	h.o.Dispatch(JoinRoom{ID: "B", Name: "b", RoomID: "team1", Secret: "abcd"})
	req.Equal("Name must be between 2 and 30 characters", h.errorText(t, "B"))

	h.o.Dispatch(CreateRoom{ID: "B", Name: "bob", RoomID: "PUBLIC", Secret: "abcd"})
	req.Equal(`Room ID "Public" is reserved`, h.errorText(t, "B"))

	h.o.Dispatch(CreateRoom{ID: "B", Name: "bob", RoomID: "team1", Secret: "abcd"})
	req.Equal("Room already exists", h.errorText(t, "B"))

	_, ok := h.o.Rooms.RoomOf("B")
	req.False(ok)
	req.Empty(h.conns["A"].frames)
}

func TestOrchestrator_LeaveCascade(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")
	h.o.Dispatch(CreateRoom{ID: "A", Name: "alice", RoomID: "r1", Secret: "abcd"})
	h.o.Dispatch(JoinRoom{ID: "B", Name: "bob", RoomID: "r1", Secret: "abcd"})
	h.o.Dispatch(CreatePoll{ID: "A", RoomID: "r1", Question: "Q", Options: []string{"1", "2"}})
	var poll domain.Poll
	h.conns["A"].last(t, protocol.NewPoll, &poll)
	h.conns["A"].reset()

	// When B moves to public
	h.o.Dispatch(JoinPublic{ID: "B", Name: "bob"})

	// Then A is told and sees a one-member list
	var sys string
	h.conns["A"].last(t, protocol.SystemMessage, &sys)
	req.Equal("bob left the room", sys)
	var users []domain.Member
	h.conns["A"].last(t, protocol.RoomUsers, &users)
	req.Len(users, 1)
	_, ok := h.o.Polls.Get(poll.ID)
	req.True(ok)

	// When A disconnects, r1 is destroyed with its polls
	h.o.Dispatch(Disconnect{ID: "A"})
	_, ok = h.o.Rooms.Get("r1")
	req.False(ok)
	_, ok = h.o.Polls.Get(poll.ID)
	req.False(ok)
	req.False(h.o.Registry.Has("A"))

	// Voting on the purged poll is silent
	h.conns["B"].reset()
	h.o.Dispatch(VotePoll{ID: "B", PollID: string(poll.ID), OptionIndex: 0})
	req.Empty(h.conns["B"].frames)
}

func TestOrchestrator_ExplicitLeaveAndRequestUsers(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")
	h.o.Dispatch(JoinPublic{ID: "A", Name: "alice"})
	h.o.Dispatch(JoinPublic{ID: "B", Name: "bob"})

	h.o.Dispatch(LeaveRoom{ID: "B"})
	_, ok := h.o.Rooms.RoomOf("B")
	req.False(ok)

	h.conns["A"].reset()
	h.o.Dispatch(RequestUsers{ID: "A"})
	evs := h.conns["A"].events(protocol.RoomUsers)
	req.Len(evs, 1)
	var users []domain.Member
	req.NoError(evs[0].Unmarshal(&users))
	req.Equal([]domain.Member{{ID: "A", Name: "alice", Color: domain.Color{R: 100, G: 100, B: 100}}}, users)
}

func TestOrchestrator_RejoinCurrentRoomDoesNotAnnounce(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")
	h.o.Dispatch(JoinPublic{ID: "A", Name: "alice"})
	h.o.Dispatch(JoinPublic{ID: "B", Name: "bob"})
	h.conns["A"].reset()

	h.o.Dispatch(JoinPublic{ID: "B", Name: "bobby"})

	req.Empty(h.conns["A"].events(protocol.SystemMessage))
	var users []domain.Member
	h.conns["A"].last(t, protocol.RoomUsers, &users)
	req.Equal("bobby", users[1].Name)
}

func TestOrchestrator_ChatMessages(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")

	// Given A is nowhere
	h.o.Dispatch(SendMessage{ID: "A", Text: "hi"})
	req.Equal("You are not in a room", h.errorText(t, "A"))

	h.o.Dispatch(JoinPublic{ID: "A", Name: "alice"})
	h.o.Dispatch(JoinPublic{ID: "B", Name: "bob"})

	// When A sends an ephemeral message
	h.o.Dispatch(SendMessage{ID: "A", Text: "secret ||ephemeral|10000||"})

	// Then everyone, the sender included, gets the clean text and the expiry
	for _, id := range []domain.ConnID{"A", "B"} {
		var msg domain.Message
		h.conns[id].last(t, protocol.ChatMessage, &msg)
		req.Equal("secret", msg.Text)
		req.EqualValues(10000, msg.Ephemeral)
		req.Equal("alice", msg.Name)
		req.Equal(domain.PublicRoomID, msg.RoomID)
		req.NotEmpty(msg.ID)
	}

	// Delete requires membership of the named room
	h.o.Dispatch(DeleteMessage{ID: "B", MsgID: "m1", RoomID: "elsewhere"})
	req.Equal("You are not in that room", h.errorText(t, "B"))
	h.o.Dispatch(DeleteMessage{ID: "B", MsgID: "m1", RoomID: "Public"})
	var deleted string
	h.conns["A"].last(t, protocol.MessageDeleted, &deleted)
	req.Equal("m1", deleted)
}

func TestOrchestrator_HugeEphemeralDelayIsClamped(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A")
	h.o.Dispatch(JoinPublic{ID: "A", Name: "alice"})

	// When the marker carries the largest int64
	h.o.Dispatch(SendMessage{ID: "A", Text: "hi ||ephemeral|9223372036854775807||"})

	// Then the delay is capped at a day and expiry lies after the timestamp
	var msg domain.Message
	h.conns["A"].last(t, protocol.ChatMessage, &msg)
	req.Equal(domain.MaxEphemeralMillis, msg.Ephemeral)
	at, ok := msg.ExpiresAt(msg.Timestamp)
	req.True(ok)
	req.True(msg.Timestamp.Add(24*time.Hour).Equal(at))
}

func TestOrchestrator_TypingSkipsSender(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")
	h.o.Dispatch(JoinPublic{ID: "A", Name: "alice"})
	h.o.Dispatch(JoinPublic{ID: "B", Name: "bob"})

	h.o.Dispatch(Typing{ID: "A"})
	h.o.Dispatch(Typing{ID: "A", Stopped: true})

	req.Empty(h.conns["A"].events(protocol.UserTyping))
	var p protocol.TypingPayload
	h.conns["B"].last(t, protocol.UserTyping, &p)
	req.Equal("alice", p.Name)
	req.Len(h.conns["B"].events(protocol.UserStopTyping), 1)
}

func TestOrchestrator_PollErrors(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("A", "B")
	h.o.Dispatch(JoinPublic{ID: "A", Name: "alice"})

	h.o.Dispatch(CreatePoll{ID: "A", RoomID: "Public", Question: "Q", Options: []string{"only"}})
	req.Equal("A poll needs at least two options", h.errorText(t, "A"))

	h.o.Dispatch(CreatePoll{ID: "A", RoomID: "Public", Question: "Q", Options: []string{"1", "2"}})
	var poll domain.Poll
	h.conns["A"].last(t, protocol.NewPoll, &poll)

	h.o.Dispatch(VotePoll{ID: "A", PollID: string(poll.ID), OptionIndex: 7})
	req.Equal("Invalid poll option", h.errorText(t, "A"))

	// B is outside the poll's room
	h.o.Dispatch(VotePoll{ID: "B", PollID: string(poll.ID), OptionIndex: 0})
	req.Equal("You are not in a room", h.errorText(t, "B"))

	// Without a voter key the connection id counts
	h.o.Dispatch(VotePoll{ID: "A", PollID: string(poll.ID), OptionIndex: 0})
	p, _ := h.o.Polls.Get(poll.ID)
	idx, ok := p.Choice("A")
	req.True(ok)
	req.Zero(idx)
}

func TestOrchestrator_DirectHandshake(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("a1", "b2", "c3")
	h.o.Dispatch(JoinPublic{ID: "a1", Name: "alice"})
	h.o.Dispatch(JoinPublic{ID: "b2", Name: "bob"})

	// Given a1 invites b2
	h.o.Dispatch(DMRequest{ID: "a1", TargetID: "b2"})
	var invite protocol.DMRequestReceivedPayload
	h.conns["b2"].last(t, protocol.DMRequestReceive, &invite)
	req.Equal(protocol.DMRequestReceivedPayload{FromID: "a1", FromName: "alice"}, invite)

	// A third party cannot accept on b2's behalf
	h.o.Dispatch(DMAccepted{ID: "c3", FromID: "a1", ToID: "b2"})
	req.Empty(h.conns["a1"].events(protocol.JoinDMRoom))

	// When b2 accepts
	h.o.Dispatch(DMAccepted{ID: "b2", FromID: "a1", ToID: "b2"})
	var ja, jb protocol.JoinDMRoomPayload
	h.conns["a1"].last(t, protocol.JoinDMRoom, &ja)
	h.conns["b2"].last(t, protocol.JoinDMRoom, &jb)
	req.Equal(ja, jb)
	req.Equal(string(domain.DirectRoomID("b2", "a1")), ja.RoomID)

	// Then both land in the same direct room
	h.o.Dispatch(JoinDM{ID: "b2", RoomID: jb.RoomID, Name: "bob"})
	h.o.Dispatch(JoinDM{ID: "a1", RoomID: ja.RoomID})
	req.Equal([]domain.ConnID{"b2", "a1"}, h.o.Rooms.Members(domain.RoomID(ja.RoomID)))
	var joined protocol.RoomJoinedPayload
	h.conns["b2"].last(t, protocol.RoomJoined, &joined)
	req.True(joined.IsCreator)

	// And an outsider is refused
	h.o.Dispatch(JoinDM{ID: "c3", RoomID: ja.RoomID, Name: "carol"})
	req.Equal("You are not part of this conversation", h.errorText(t, "c3"))

	h.o.Dispatch(DMRequest{ID: "a1", TargetID: "gone"})
	req.Equal("User is no longer online", h.errorText(t, "a1"))
}

func TestOrchestrator_DirectAcceptDefaultsToCaller(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.connect("a1", "b2")

	// When b2 accepts without naming itself
	h.o.Dispatch(DMAccepted{ID: "b2", FromID: "a1"})

	// Then both are told the same room
	var ja, jb protocol.JoinDMRoomPayload
	h.conns["a1"].last(t, protocol.JoinDMRoom, &ja)
	h.conns["b2"].last(t, protocol.JoinDMRoom, &jb)
	req.Equal(string(domain.DirectRoomID("a1", "b2")), ja.RoomID)
	req.Equal(ja, jb)
}

func TestOrchestrator_Backpressure(t *testing.T) {
	req := require.New(t)

	for _, tc := range []struct {
		policy app.Policy
		kicked bool
	}{
		{app.SimplePolicy{}, true},
		{app.LenientPolicy{}, false},
	} {
		h := newHarness(t, tc.policy)
		h.connect("A", "B")
		h.o.Dispatch(JoinPublic{ID: "A", Name: "alice"})
		h.o.Dispatch(JoinPublic{ID: "B", Name: "bob"})

		h.conns["B"].full = true
		h.o.Dispatch(SendMessage{ID: "A", Text: "hello"})

		req.Equal(tc.kicked, h.conns["B"].closed)
		req.False(h.conns["A"].closed)
	}
}

func TestOrchestrator_DropsCommandsFromUnknownConnections(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)

	h.o.Dispatch(JoinPublic{ID: "ghost", Name: "ghost"})

	req.Empty(h.o.Rooms.Members(domain.PublicRoomID))
}

func TestOrchestrator_RunServesListRooms(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.o.Run(ctx) }()

	r := &recorder{}
	req.NoError(h.o.Submit(ctx, Connect{ID: "A", Signal: r}))
	req.NoError(h.o.Submit(ctx, CreateRoom{ID: "A", Name: "alice", RoomID: "r1", Secret: "abcd"}))

	rooms, err := h.o.ListRooms(ctx)
	req.NoError(err)
	raw, err := json.Marshal(rooms)
	req.NoError(err)
	req.JSONEq(`[{"id":"Public","kind":"public","memberCount":0},{"id":"r1","kind":"private","memberCount":1}]`, string(raw))

	cancel()
	req.NoError(<-done)
}
