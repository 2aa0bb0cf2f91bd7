package orch

import (
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// dmRequest forwards the invitation. Nothing is recorded: if the target goes
// away before answering, the request is never actioned.
func (o *Orchestrator) dmRequest(c DMRequest) error {
	target := domain.ConnID(c.TargetID)
	if target == c.ID {
		return domain.Validation("You cannot message yourself")
	}
	if !o.Registry.Has(target) {
		return domain.NotFound("User is no longer online")
	}
	log.Info().Str("module", "orch.dm").Str("from", string(c.ID)).Str("to", string(target)).Msg("dm request")
	o.sendTo(target, protocol.DMRequestReceive, protocol.DMRequestReceivedPayload{
		FromID:   string(c.ID),
		FromName: o.Registry.Name(c.ID),
	})
	return nil
}

// dmAccepted tells both parties to join the shared room. Only the invited
// side may accept, and only while the requester is still connected. An empty
// ToID names the caller.
func (o *Orchestrator) dmAccepted(c DMAccepted) {
	from, to := domain.ConnID(c.FromID), domain.ConnID(c.ToID)
	if to == "" {
		to = c.ID
	}
	if to != c.ID || from == to || !o.Registry.Has(from) {
		log.Warn().Str("module", "orch.dm").Str("conn", string(c.ID)).Str("from", c.FromID).Str("to", c.ToID).Msg("dm accept ignored")
		return
	}
	roomID := domain.DirectRoomID(from, to)
	log.Info().Str("module", "orch.dm").Str("room", string(roomID)).Msg("dm accepted")
	payload := protocol.JoinDMRoomPayload{RoomID: string(roomID)}
	o.sendTo(from, protocol.JoinDMRoom, payload)
	o.sendTo(to, protocol.JoinDMRoom, payload)
}
