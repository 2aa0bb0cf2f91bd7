package orch

import (
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
)

func (o *Orchestrator) createPoll(c CreatePoll) error {
	roomID, err := o.memberOf(c.ID, c.RoomID)
	if err != nil {
		return err
	}
	req := domain.CreatePollRequest{Question: c.Question, Options: c.Options}
	poll, err := o.Polls.Create(roomID, req, o.Registry.Name(c.ID))
	if err != nil {
		return err
	}
	o.broadcast(roomID, protocol.NewPoll, poll.Snapshot(), "")
	return nil
}

func (o *Orchestrator) votePoll(c VotePoll) error {
	poll, found := o.Polls.Get(domain.PollID(c.PollID))
	if !found {
		return nil
	}
	if _, err := o.memberOf(c.ID, string(poll.RoomID)); err != nil {
		return err
	}
	key := c.VoterKey
	if key == "" {
		key = string(c.ID)
	}
	if _, _, err := o.Polls.Vote(poll.ID, c.OptionIndex, key); err != nil {
		return err
	}
	snap := poll.Snapshot()
	o.broadcast(poll.RoomID, protocol.UpdatePoll, protocol.UpdatePollPayload{
		PollID:     string(snap.ID),
		Options:    snap.Options,
		TotalVotes: snap.TotalVotes(),
	}, "")
	return nil
}
