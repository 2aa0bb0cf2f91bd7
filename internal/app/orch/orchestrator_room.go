package orch

import (
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) createRoom(c CreateRoom) error {
	req := domain.CreateRoomRequest{Name: c.Name, RoomID: c.RoomID, Secret: c.Secret}
	name, err := domain.NormalizeName(c.Name)
	if err != nil {
		return err
	}
	req.Name = name
	room, err := o.Rooms.Create(c.ID, req)
	if err != nil {
		return err
	}
	o.entered(c.ID, name, room, true, true)
	return nil
}

func (o *Orchestrator) joinRoom(c JoinRoom) error {
	name, err := domain.NormalizeName(c.Name)
	if err != nil {
		return err
	}
	prev, _ := o.Rooms.RoomOf(c.ID)
	room, err := o.Rooms.Join(c.ID, domain.RoomID(c.RoomID), c.Secret)
	if err != nil {
		return err
	}
	o.entered(c.ID, name, room, false, prev != room.ID)
	return nil
}

func (o *Orchestrator) joinPublic(c JoinPublic) error {
	name, err := domain.NormalizeName(c.Name)
	if err != nil {
		return err
	}
	prev, _ := o.Rooms.RoomOf(c.ID)
	room := o.Rooms.JoinPublic(c.ID)
	o.entered(c.ID, name, room, false, prev != room.ID)
	return nil
}

// joinDM lets only the two parties encoded in the room id in. The peer must
// still be connected or already waiting inside.
func (o *Orchestrator) joinDM(c JoinDM) error {
	roomID := domain.RoomID(c.RoomID)
	peer, ok := domain.DirectPeer(roomID, c.ID)
	if ok && !o.Registry.Has(peer) {
		svc, exists := o.Rooms.Get(roomID)
		ok = exists && svc.Has(peer)
	}
	if !ok {
		return domain.Auth("You are not part of this conversation")
	}

	name := o.Registry.Name(c.ID)
	if c.Name != "" {
		n, err := domain.NormalizeName(c.Name)
		if err != nil {
			return err
		}
		name = n
	}
	prev, _ := o.Rooms.RoomOf(c.ID)
	room, created := o.Rooms.JoinDirect(c.ID, roomID)
	o.entered(c.ID, name, room, created, prev != room.ID)
	return nil
}

// entered finishes every successful join: the name is applied, the caller
// learns its room and the others get the announcement.
func (o *Orchestrator) entered(id domain.ConnID, name string, room *domain.Room, isCreator, announce bool) {
	o.Registry.SetName(id, name)
	o.sendTo(id, protocol.RoomJoined, protocol.RoomJoinedPayload{RoomID: string(room.ID), IsCreator: isCreator})
	if announce {
		o.broadcast(room.ID, protocol.SystemMessage, name+" joined the room", id)
	}
	o.Presence.Schedule(room.ID)
}

// onVacate is the leave cascade, run by the directory before any join
// that follows it.
func (o *Orchestrator) onVacate(room *domain.Room, id domain.ConnID, destroyed bool) {
	if destroyed {
		o.Polls.PurgeRoom(room.ID)
	} else {
		o.broadcast(room.ID, protocol.SystemMessage, o.Registry.Name(id)+" left the room", id)
	}
	o.Presence.Schedule(room.ID)
}

func (o *Orchestrator) setName(c SetName) error {
	name, err := domain.NormalizeName(c.Name)
	if err != nil {
		return err
	}
	o.Registry.SetName(c.ID, name)
	if roomID, ok := o.Rooms.RoomOf(c.ID); ok {
		o.Presence.Schedule(roomID)
	}
	return nil
}

func (o *Orchestrator) requestUsers(id domain.ConnID) {
	roomID, ok := o.Rooms.RoomOf(id)
	if !ok {
		log.Debug().Str("module", "orch").Str("conn", string(id)).Msg("request users outside a room")
		return
	}
	o.Presence.Schedule(roomID)
}
