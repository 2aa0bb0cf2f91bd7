package app

import (
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/samber/lo"
)

// MemberList resolves member ids to the ordered presence list.
// Members that already unregistered are skipped.
func MemberList(reg *Registry, ids []domain.ConnID) []domain.Member {
	return lo.FilterMap(ids, func(id domain.ConnID, _ int) (domain.Member, bool) {
		c, ok := reg.Connection(id)
		if !ok {
			return domain.Member{}, false
		}
		return domain.NewMember(c), true
	})
}

// PresenceQueue collects rooms whose member list must be republished.
// Refreshes are deferred until the triggering event is fully handled, and a
// room is published at most once per drain.
type PresenceQueue struct {
	pending []domain.RoomID
	queued  map[domain.RoomID]struct{}
}

func NewPresenceQueue() *PresenceQueue {
	return &PresenceQueue{queued: make(map[domain.RoomID]struct{})}
}

func (q *PresenceQueue) Schedule(room domain.RoomID) {
	if _, ok := q.queued[room]; ok {
		return
	}
	q.queued[room] = struct{}{}
	q.pending = append(q.pending, room)
}

// Drain returns pending rooms in scheduling order and empties the queue.
func (q *PresenceQueue) Drain() []domain.RoomID {
	out := q.pending
	q.pending = nil
	clear(q.queued)
	return out
}
