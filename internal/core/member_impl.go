package core

import "github.com/dkeye/ChatJet/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta   *domain.Connection
	signal SignalConnection
}

func NewMemberSession(meta *domain.Connection, signal SignalConnection) MemberSession {
	return &memberSession{meta: meta, signal: signal}
}

func (m *memberSession) Meta() *domain.Connection  { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.signal }
