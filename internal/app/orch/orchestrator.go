// Package orch runs the single dispatch loop that owns all authoritative
// server state. Every Command is handled to completion before the next one.
package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/ChatJet/internal/app"
	"github.com/dkeye/ChatJet/internal/core"
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultInboxSize = 256

type Options struct {
	Registry *app.Registry
	Rooms    *app.RoomDirectory
	Polls    *app.PollEngine
	Policy   app.Policy

	InboxSize          int
	MaxAttachmentBytes int

	Now   func() time.Time
	NewID func() string
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomDirectory
	Polls    *app.PollEngine
	Policy   app.Policy
	Presence *app.PresenceQueue

	inbox         chan Command
	maxAttachment int
	now           func() time.Time
	newID         func() string
}

// New fills every nil option with its default and hooks the leave cascade
// into the room directory.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		Registry:      opts.Registry,
		Rooms:         opts.Rooms,
		Polls:         opts.Polls,
		Policy:        opts.Policy,
		Presence:      app.NewPresenceQueue(),
		maxAttachment: opts.MaxAttachmentBytes,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if o.Registry == nil {
		o.Registry = app.NewRegistry(nil)
	}
	if o.Rooms == nil {
		o.Rooms = app.NewRoomDirectory()
	}
	if o.Polls == nil {
		o.Polls = app.NewPollEngine()
	}
	if o.Policy == nil {
		o.Policy = app.SimplePolicy{}
	}
	if o.maxAttachment <= 0 {
		o.maxAttachment = app.DefaultMaxAttachmentBytes
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	size := opts.InboxSize
	if size <= 0 {
		size = DefaultInboxSize
	}
	o.inbox = make(chan Command, size)
	o.Rooms.OnVacate(o.onVacate)
	return o
}

// Run dispatches commands until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Str("module", "orch").Msg("dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("dispatch loop stopped")
			return nil
		case cmd := <-o.inbox:
			o.Dispatch(cmd)
		}
	}
}

// Submit queues cmd. It blocks while the inbox is full.
func (o *Orchestrator) Submit(ctx context.Context, cmd Command) error {
	select {
	case o.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListRooms asks the loop for a snapshot of the live rooms.
func (o *Orchestrator) ListRooms(ctx context.Context) ([]core.RoomInfo, error) {
	reply := make(chan []core.RoomInfo, 1)
	if err := o.Submit(ctx, ListRooms{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case rooms := <-reply:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispatch handles one command synchronously, then publishes the presence
// refreshes it scheduled. Failures go back to the originating connection.
func (o *Orchestrator) Dispatch(cmd Command) {
	var (
		from domain.ConnID
		err  error
	)
	if s, ok := cmd.(sent); ok && !o.Registry.Has(s.sender()) {
		log.Debug().Str("module", "orch").Str("conn", string(s.sender())).Type("command", cmd).Msg("command from unknown connection dropped")
		return
	}
	switch c := cmd.(type) {
	case Connect:
		o.connect(c)
	case Disconnect:
		o.disconnect(c.ID)
	case CreateRoom:
		from, err = c.ID, o.createRoom(c)
	case JoinRoom:
		from, err = c.ID, o.joinRoom(c)
	case JoinPublic:
		from, err = c.ID, o.joinPublic(c)
	case JoinDM:
		from, err = c.ID, o.joinDM(c)
	case LeaveRoom:
		o.Rooms.Leave(c.ID)
	case SetName:
		from, err = c.ID, o.setName(c)
	case RequestUsers:
		o.requestUsers(c.ID)
	case Typing:
		o.typing(c)
	case SendMessage:
		from, err = c.ID, o.sendMessage(c)
	case DeleteMessage:
		from, err = c.ID, o.deleteMessage(c)
	case CreatePoll:
		from, err = c.ID, o.createPoll(c)
	case VotePoll:
		from, err = c.ID, o.votePoll(c)
	case DMRequest:
		from, err = c.ID, o.dmRequest(c)
	case DMAccepted:
		o.dmAccepted(c)
	case ListRooms:
		c.Reply <- o.Rooms.List()
	default:
		log.Warn().Str("module", "orch").Type("command", cmd).Msg("unknown command")
	}
	if err != nil {
		o.sendError(from, err)
	}
	o.flushPresence()
}

func (o *Orchestrator) connect(c Connect) {
	if o.Registry.Has(c.ID) {
		log.Warn().Str("module", "orch").Str("conn", string(c.ID)).Msg("duplicate connect ignored")
		return
	}
	color := o.Registry.Register(c.ID, c.Signal, c.ClientKey)
	o.sendTo(c.ID, protocol.Color, color.String())
}

// disconnect is an implicit leave followed by forgetting the connection.
func (o *Orchestrator) disconnect(id domain.ConnID) {
	if !o.Registry.Has(id) {
		return
	}
	o.Rooms.Leave(id)
	o.Registry.Unregister(id)
}

func (o *Orchestrator) flushPresence() {
	for _, roomID := range o.Presence.Drain() {
		svc, ok := o.Rooms.Get(roomID)
		if !ok {
			continue
		}
		o.broadcast(roomID, protocol.RoomUsers, app.MemberList(o.Registry, svc.Members()), "")
	}
}

func (o *Orchestrator) sendTo(id domain.ConnID, name string, payload any) {
	sess, ok := o.Registry.Get(id)
	if !ok {
		return
	}
	frame, err := protocol.Encode(name, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return
	}
	roomID, _ := o.Rooms.RoomOf(id)
	o.deliver(roomID, sess, frame)
}

// broadcast encodes once and fans out to every member of roomID but except.
func (o *Orchestrator) broadcast(roomID domain.RoomID, name string, payload any, except domain.ConnID) {
	members := o.Rooms.Members(roomID)
	if len(members) == 0 {
		return
	}
	frame, err := protocol.Encode(name, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return
	}
	for _, id := range members {
		if id == except {
			continue
		}
		if sess, ok := o.Registry.Get(id); ok {
			o.deliver(roomID, sess, frame)
		}
	}
}

func (o *Orchestrator) deliver(roomID domain.RoomID, sess core.MemberSession, frame []byte) {
	err := sess.Signal().TrySend(frame)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrBackpressure):
		switch o.Policy.OnBackPressure(roomID, sess) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("conn", string(sess.Meta().ID)).Msg("slow connection kicked")
			sess.Signal().Close()
		case app.DropFrame, app.NoAction:
			log.Debug().Str("module", "orch").Str("conn", string(sess.Meta().ID)).Msg("frame dropped")
		}
	default:
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(sess.Meta().ID)).Msg("send failed")
	}
}

func (o *Orchestrator) sendError(id domain.ConnID, err error) {
	log.Warn().Err(err).Str("module", "orch").Str("conn", string(id)).Msg("command rejected")
	o.sendTo(id, protocol.Error, domain.ErrorText(err))
}
