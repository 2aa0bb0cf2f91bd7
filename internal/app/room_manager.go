package app

import (
	"slices"
	"strings"
	"time"

	"github.com/dkeye/ChatJet/internal/core"
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// VacateFunc runs after id left room. destroyed is set when the room went
// empty and was removed from the directory.
type VacateFunc func(room *domain.Room, id domain.ConnID, destroyed bool)

// RoomDirectory owns room existence, membership and secrets. A connection is
// a member of at most one room: every join first leaves the previous room,
// and the leave (including its VacateFunc) completes before the join.
type RoomDirectory struct {
	rooms    map[domain.RoomID]core.RoomService
	roomOf   map[domain.ConnID]domain.RoomID
	onVacate VacateFunc
	now      func() time.Time
}

func NewRoomDirectory() *RoomDirectory {
	d := &RoomDirectory{
		rooms:  make(map[domain.RoomID]core.RoomService),
		roomOf: make(map[domain.ConnID]domain.RoomID),
		now:    time.Now,
	}
	d.rooms[domain.PublicRoomID] = core.NewRoomService(domain.NewPublicRoom())
	return d
}

// OnVacate installs the cascade run after every leave.
func (d *RoomDirectory) OnVacate(fn VacateFunc) { d.onVacate = fn }

// Create makes a private room with id as its only member.
func (d *RoomDirectory) Create(id domain.ConnID, req domain.CreateRoomRequest) (*domain.Room, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	roomID := domain.RoomID(req.RoomID)
	if _, ok := d.rooms[roomID]; ok {
		return nil, domain.Validation("Room already exists")
	}
	d.Leave(id)

	room := &domain.Room{ID: roomID, Kind: domain.KindPrivate, Secret: req.Secret, CreatedAt: d.now()}
	d.rooms[roomID] = core.NewRoomService(room)
	d.add(id, roomID)
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("conn", string(id)).Msg("room created")
	return room, nil
}

// Join enters an existing room after checking its secret.
func (d *RoomDirectory) Join(id domain.ConnID, roomID domain.RoomID, secret string) (*domain.Room, error) {
	if domain.IsReservedRoomID(string(roomID)) {
		return d.JoinPublic(id), nil
	}
	svc, ok := d.rooms[roomID]
	if !ok {
		return nil, domain.NotFound("Room does not exist")
	}
	room := svc.Room()
	if !room.CheckSecret(secret) {
		return nil, domain.Auth("Incorrect password")
	}
	d.move(id, roomID)
	return room, nil
}

// JoinPublic always succeeds.
func (d *RoomDirectory) JoinPublic(id domain.ConnID) *domain.Room {
	d.move(id, domain.PublicRoomID)
	return d.rooms[domain.PublicRoomID].Room()
}

// JoinDirect enters a direct room, creating it with a random secret on the
// first join. Authorizing the caller is the coordinator's business.
func (d *RoomDirectory) JoinDirect(id domain.ConnID, roomID domain.RoomID) (*domain.Room, bool) {
	svc, ok := d.rooms[roomID]
	if ok {
		d.move(id, roomID)
		return svc.Room(), false
	}
	d.Leave(id)
	room := &domain.Room{ID: roomID, Kind: domain.KindDirect, Secret: uuid.NewString(), CreatedAt: d.now()}
	d.rooms[roomID] = core.NewRoomService(room)
	d.add(id, roomID)
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("conn", string(id)).Msg("direct room created")
	return room, true
}

// Leave removes id from its current room. It reports the room left, if any.
func (d *RoomDirectory) Leave(id domain.ConnID) (domain.RoomID, bool) {
	roomID, ok := d.roomOf[id]
	if !ok {
		return "", false
	}
	delete(d.roomOf, id)
	svc := d.rooms[roomID]
	svc.RemoveMember(id)

	destroyed := svc.MemberCount() == 0 && !svc.Room().Immortal()
	if destroyed {
		delete(d.rooms, roomID)
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room destroyed")
	}
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("conn", string(id)).Msg("left room")
	if d.onVacate != nil {
		d.onVacate(svc.Room(), id, destroyed)
	}
	return roomID, true
}

func (d *RoomDirectory) RoomOf(id domain.ConnID) (domain.RoomID, bool) {
	roomID, ok := d.roomOf[id]
	return roomID, ok
}

func (d *RoomDirectory) Get(roomID domain.RoomID) (core.RoomService, bool) {
	svc, ok := d.rooms[roomID]
	return svc, ok
}

func (d *RoomDirectory) Members(roomID domain.RoomID) []domain.ConnID {
	if svc, ok := d.rooms[roomID]; ok {
		return svc.Members()
	}
	return nil
}

// List returns every live room sorted by id, the public room included.
func (d *RoomDirectory) List() []core.RoomInfo {
	out := make([]core.RoomInfo, 0, len(d.rooms))
	for id, svc := range d.rooms {
		out = append(out, core.RoomInfo{ID: id, Kind: svc.Room().Kind, MemberCount: svc.MemberCount()})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// move is a join into an existing room. Re-joining the current room is a no-op.
func (d *RoomDirectory) move(id domain.ConnID, roomID domain.RoomID) {
	if cur, ok := d.roomOf[id]; ok && cur == roomID {
		return
	}
	d.Leave(id)
	d.add(id, roomID)
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("conn", string(id)).Msg("joined room")
}

func (d *RoomDirectory) add(id domain.ConnID, roomID domain.RoomID) {
	d.rooms[roomID].AddMember(id)
	d.roomOf[id] = roomID
}
