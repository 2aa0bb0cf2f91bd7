package core

import "github.com/dkeye/ChatJet/internal/domain"

// MemberSession binds a connection's identity and its transport endpoint.
// This is what the registry stores and rooms fan out to.
type MemberSession interface {
	Meta() *domain.Connection
	Signal() SignalConnection
}
