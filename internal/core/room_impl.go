package core

import (
	"slices"

	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is an in-memory room with an ordered, duplicate-free member set.
// It is owned by the dispatch loop and not safe for concurrent use.
type roomImpl struct {
	room    *domain.Room
	order   []domain.ConnID
	members map[domain.ConnID]struct{}
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:    room,
		members: make(map[domain.ConnID]struct{}),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int { return len(r.order) }

func (r *roomImpl) Members() []domain.ConnID { return slices.Clone(r.order) }

func (r *roomImpl) Has(id domain.ConnID) bool {
	_, ok := r.members[id]
	return ok
}

func (r *roomImpl) AddMember(id domain.ConnID) bool {
	if r.Has(id) {
		return false
	}
	r.members[id] = struct{}{}
	r.order = append(r.order, id)
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("conn", string(id)).Msg("member added")
	return true
}

func (r *roomImpl) RemoveMember(id domain.ConnID) bool {
	if !r.Has(id) {
		return false
	}
	delete(r.members, id)
	r.order = slices.DeleteFunc(r.order, func(m domain.ConnID) bool { return m == id })
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("conn", string(id)).Msg("member removed")
	return true
}
