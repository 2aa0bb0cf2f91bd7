package core

import (
	"github.com/dkeye/ChatJet/internal/domain"
)

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	// Members lists member ids in join order.
	Members() []domain.ConnID
	Has(id domain.ConnID) bool

	// AddMember and RemoveMember report whether the set changed.
	AddMember(id domain.ConnID) bool
	RemoveMember(id domain.ConnID) bool
}

// RoomInfo is a read-only view for APIs. Secrets never leave the directory.
type RoomInfo struct {
	ID          domain.RoomID   `json:"id"`
	Kind        domain.RoomKind `json:"kind"`
	MemberCount int             `json:"memberCount"`
}
