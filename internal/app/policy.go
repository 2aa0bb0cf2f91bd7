package app

import (
	"github.com/dkeye/ChatJet/internal/core"
	"github.com/dkeye/ChatJet/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, member core.MemberSession) BackpressureAction
}

// SimplePolicy kicks slow members; their transport closes and the regular
// disconnect path releases the membership.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, core.MemberSession) BackpressureAction {
	return KickMember
}

// LenientPolicy only drops the frame.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(domain.RoomID, core.MemberSession) BackpressureAction {
	return DropFrame
}
