package orch

import (
	"github.com/dkeye/ChatJet/internal/core"
	"github.com/dkeye/ChatJet/internal/domain"
)

// Command is one inbound event for the dispatch loop. The set is closed:
// every implementation lives in this file and Dispatch handles each of them.
type Command interface {
	command()
}

type Connect struct {
	ID        domain.ConnID
	Signal    core.SignalConnection
	ClientKey string
}

type Disconnect struct {
	ID domain.ConnID
}

type CreateRoom struct {
	ID     domain.ConnID
	Name   string
	RoomID string
	Secret string
}

type JoinRoom struct {
	ID     domain.ConnID
	Name   string
	RoomID string
	Secret string
}

type JoinPublic struct {
	ID   domain.ConnID
	Name string
}

// JoinDM is the second half of the direct handshake. An empty Name keeps
// the current one.
type JoinDM struct {
	ID     domain.ConnID
	RoomID string
	Name   string
}

type LeaveRoom struct {
	ID domain.ConnID
}

type SetName struct {
	ID   domain.ConnID
	Name string
}

type RequestUsers struct {
	ID domain.ConnID
}

type Typing struct {
	ID      domain.ConnID
	Stopped bool
}

type SendMessage struct {
	ID         domain.ConnID
	Text       string
	Attachment *domain.Attachment
}

type DeleteMessage struct {
	ID     domain.ConnID
	MsgID  string
	RoomID string
}

type CreatePoll struct {
	ID       domain.ConnID
	RoomID   string
	Question string
	Options  []string
}

// VotePoll falls back to the connection id when VoterKey is empty.
type VotePoll struct {
	ID          domain.ConnID
	PollID      string
	OptionIndex int
	VoterKey    string
}

type DMRequest struct {
	ID       domain.ConnID
	TargetID string
}

type DMAccepted struct {
	ID     domain.ConnID
	FromID string
	ToID   string
}

// ListRooms is a read-only query answered on Reply, which must be buffered.
type ListRooms struct {
	Reply chan<- []core.RoomInfo
}

func (Connect) command()       {}
func (Disconnect) command()    {}
func (CreateRoom) command()    {}
func (JoinRoom) command()      {}
func (JoinPublic) command()    {}
func (JoinDM) command()        {}
func (LeaveRoom) command()     {}
func (SetName) command()       {}
func (RequestUsers) command()  {}
func (Typing) command()        {}
func (SendMessage) command()   {}
func (DeleteMessage) command() {}
func (CreatePoll) command()    {}
func (VotePoll) command()      {}
func (DMRequest) command()     {}
func (DMAccepted) command()    {}
func (ListRooms) command()     {}

// sent marks commands issued by a registered connection.
type sent interface {
	sender() domain.ConnID
}

func (c CreateRoom) sender() domain.ConnID    { return c.ID }
func (c JoinRoom) sender() domain.ConnID      { return c.ID }
func (c JoinPublic) sender() domain.ConnID    { return c.ID }
func (c JoinDM) sender() domain.ConnID        { return c.ID }
func (c LeaveRoom) sender() domain.ConnID     { return c.ID }
func (c SetName) sender() domain.ConnID       { return c.ID }
func (c RequestUsers) sender() domain.ConnID  { return c.ID }
func (c Typing) sender() domain.ConnID        { return c.ID }
func (c SendMessage) sender() domain.ConnID   { return c.ID }
func (c DeleteMessage) sender() domain.ConnID { return c.ID }
func (c CreatePoll) sender() domain.ConnID    { return c.ID }
func (c VotePoll) sender() domain.ConnID      { return c.ID }
func (c DMRequest) sender() domain.ConnID     { return c.ID }
func (c DMAccepted) sender() domain.ConnID    { return c.ID }
