package app

import (
	"math/rand/v2"

	"github.com/dkeye/ChatJet/internal/core"
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry is the connection registry: identity and transport endpoint of
// every live connection. It is owned by the dispatch loop.
type Registry struct {
	sessions map[domain.ConnID]core.MemberSession
	intn     func(n int) int
}

// NewRegistry uses intn to pick colors; nil means math/rand/v2.IntN.
func NewRegistry(intn func(n int) int) *Registry {
	if intn == nil {
		intn = rand.IntN
	}
	return &Registry{
		sessions: make(map[domain.ConnID]core.MemberSession),
		intn:     intn,
	}
}

// Register binds a new connection and assigns its color once.
func (r *Registry) Register(id domain.ConnID, signal core.SignalConnection, clientKey string) domain.Color {
	color := domain.NewRandomColor(r.intn)
	meta := domain.NewConnection(id, color, clientKey)
	r.sessions[id] = core.NewMemberSession(meta, signal)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("color", color.String()).Msg("connection registered")
	return color
}

func (r *Registry) SetName(id domain.ConnID, name string) {
	if s, ok := r.sessions[id]; ok {
		s.Meta().Name = name
		log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("name", name).Msg("updated name")
	}
}

// Unregister drops name and color. Room membership must be released before.
func (r *Registry) Unregister(id domain.ConnID) {
	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection unregistered")
}

func (r *Registry) Get(id domain.ConnID) (core.MemberSession, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Connection(id domain.ConnID) (*domain.Connection, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Meta(), true
}

func (r *Registry) Has(id domain.ConnID) bool {
	_, ok := r.sessions[id]
	return ok
}

// Name is the display name of id, UnknownName once it is gone.
func (r *Registry) Name(id domain.ConnID) string {
	if c, ok := r.Connection(id); ok {
		return c.DisplayName()
	}
	return domain.UnknownName
}

func (r *Registry) Len() int { return len(r.sessions) }
