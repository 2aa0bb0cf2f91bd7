package domain

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateRoomRequest_Validate(t *testing.T) {
	cases := []struct {
		name string
		req  CreateRoomRequest
		ok   bool
	}{
		{"valid", CreateRoomRequest{Name: "alice", RoomID: "team_1-a", Secret: "abcd"}, true},
		{"name too short", CreateRoomRequest{Name: "a", RoomID: "r1", Secret: "abcd"}, false},
		{"name too long", CreateRoomRequest{Name: "abcdefghijklmnopqrstuvwxyz12345", RoomID: "r1", Secret: "abcd"}, false},
		{"empty room id", CreateRoomRequest{Name: "alice", RoomID: "", Secret: "abcd"}, false},
		{"room id too long", CreateRoomRequest{Name: "alice", RoomID: "abcdefghijklmnopqrstuvwxyz12345", Secret: "abcd"}, false},
		{"room id bad chars", CreateRoomRequest{Name: "alice", RoomID: "team 1", Secret: "abcd"}, false},
		{"secret too short", CreateRoomRequest{Name: "alice", RoomID: "r1", Secret: "abc"}, false},
		{"reserved lower", CreateRoomRequest{Name: "alice", RoomID: "public", Secret: "abcd"}, false},
		{"reserved upper", CreateRoomRequest{Name: "alice", RoomID: "PUBLIC", Secret: "abcd"}, false},
		{"reserved mixed", CreateRoomRequest{Name: "alice", RoomID: "pUbLiC", Secret: "abcd"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			require.NotEqual(t, "Something went wrong", ErrorText(err))
		})
	}
}

func TestCreatePollRequest_Validate(t *testing.T) {
	req := require.New(t)

	req.NoError(CreatePollRequest{Question: "Lunch?", Options: []string{"X", "Y"}}.Validate())

	err := CreatePollRequest{Question: "Lunch?", Options: []string{"X"}}.Validate()
	req.ErrorIs(err, ErrValidation)
	req.Equal("A poll needs at least two options", ErrorText(err))

	err = CreatePollRequest{Question: "Lunch?", Options: []string{"X", ""}}.Validate()
	req.Equal("A poll needs at least two options", ErrorText(err))

	err = CreatePollRequest{Options: []string{"X", "Y"}}.Validate()
	req.Equal("Poll question is required", ErrorText(err))
}

func TestNormalizeName(t *testing.T) {
	req := require.New(t)

	name, err := NormalizeName("  bob  ")
	req.NoError(err)
	req.Equal("bob", name)

	_, err = NormalizeName(" b ")
	req.ErrorIs(err, ErrValidation)
}

func TestPoll_VoteKeepsCountsEqualToVoters(t *testing.T) {
	req := require.New(t)
	p := NewPoll("p1", "r1", "Q", []string{"A", "B", "C"}, "alice")
	rng := rand.New(rand.NewPCG(1, 2))
	keys := []string{"k1", "k2", "k3", "k4"}

	for i := 0; i < 500; i++ {
		req.NoError(p.Vote(keys[rng.IntN(len(keys))], rng.IntN(3)))
		req.Equal(p.VoterCount(), p.TotalVotes())
		for _, o := range p.Options {
			req.GreaterOrEqual(o.Count, 0)
		}
	}
}

func TestPoll_ReVote(t *testing.T) {
	req := require.New(t)
	p := NewPoll("p1", "r1", "Q", []string{"X", "Y"}, "alice")

	req.NoError(p.Vote("u-b", 0))
	req.Equal([]PollOption{{"X", 1}, {"Y", 0}}, p.Options)

	// Same option again is harmless
	req.NoError(p.Vote("u-b", 0))
	req.Equal([]PollOption{{"X", 1}, {"Y", 0}}, p.Options)

	req.NoError(p.Vote("u-b", 1))
	req.Equal([]PollOption{{"X", 0}, {"Y", 1}}, p.Options)
	req.Equal(1, p.TotalVotes())

	err := p.Vote("u-b", 2)
	req.True(errors.Is(err, ErrValidation))
	req.Equal(1, p.TotalVotes())
}

func TestDirectRoomID_Symmetric(t *testing.T) {
	req := require.New(t)
	a := ConnID("5b0f4e0e-aaaa")
	b := ConnID("1c2d-bbbb")

	req.Equal(DirectRoomID(a, b), DirectRoomID(b, a))
	req.Equal(RoomID("DM-1c2d-bbbb-5b0f4e0e-aaaa"), DirectRoomID(a, b))

	peer, ok := DirectPeer(DirectRoomID(a, b), a)
	req.True(ok)
	req.Equal(b, peer)
	peer, ok = DirectPeer(DirectRoomID(a, b), b)
	req.True(ok)
	req.Equal(a, peer)

	_, ok = DirectPeer(DirectRoomID(a, b), "eve")
	req.False(ok)
	_, ok = DirectPeer("team1", a)
	req.False(ok)
}

func TestNewRandomColor_BrightensDarkChannels(t *testing.T) {
	req := require.New(t)

	// intn returns 9, so every channel is 10 and gets doubled
	c := NewRandomColor(func(int) int { return 9 })
	req.Equal(Color{20, 20, 20}, c)

	c = NewRandomColor(func(int) int { return 50 })
	req.Equal(Color{51, 51, 51}, c)

	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		c := NewRandomColor(rng.IntN)
		for _, v := range []uint8{c.R, c.G, c.B} {
			req.GreaterOrEqual(v, uint8(2))
		}
	}
}

func TestColor_RoundTripText(t *testing.T) {
	req := require.New(t)
	c := Color{R: 12, G: 200, B: 255}

	b, err := c.MarshalText()
	req.NoError(err)
	req.Equal("rgb(12,200,255)", string(b))

	var back Color
	req.NoError(back.UnmarshalText(b))
	req.Equal(c, back)

	_, ok := ParseColor("#ffffff")
	req.False(ok)
}

func TestRoom_CheckSecret(t *testing.T) {
	req := require.New(t)
	r := &Room{ID: "team1", Kind: KindPrivate, Secret: "abcd"}

	req.True(r.CheckSecret("abcd"))
	req.False(r.CheckSecret("wrong"))
	req.True(NewPublicRoom().CheckSecret("anything"))
	req.True(NewPublicRoom().Immortal())
	req.False(r.Immortal())
}

func TestMessage_ExpiresAtNeverPrecedesReceipt(t *testing.T) {
	req := require.New(t)
	received := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	_, ok := Message{}.ExpiresAt(received)
	req.False(ok)

	at, ok := Message{Ephemeral: 1500}.ExpiresAt(received)
	req.True(ok)
	req.True(received.Add(1500*time.Millisecond).Equal(at))

	// An unclamped value from an old peer must not overflow into the past
	at, ok = Message{Ephemeral: math.MaxInt64}.ExpiresAt(received)
	req.True(ok)
	req.True(received.Add(24*time.Hour).Equal(at))
}
