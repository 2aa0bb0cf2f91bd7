package app

import (
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PollEngine owns poll definitions and tallies, scoped to rooms.
type PollEngine struct {
	polls  map[domain.PollID]*domain.Poll
	byRoom map[domain.RoomID][]domain.PollID
	newID  func() string
}

func NewPollEngine() *PollEngine {
	return &PollEngine{
		polls:  make(map[domain.PollID]*domain.Poll),
		byRoom: make(map[domain.RoomID][]domain.PollID),
		newID:  uuid.NewString,
	}
}

func (e *PollEngine) Create(room domain.RoomID, req domain.CreatePollRequest, creator string) (*domain.Poll, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := domain.NewPoll(domain.PollID(e.newID()), room, req.Question, req.Options, creator)
	e.polls[p.ID] = p
	e.byRoom[room] = append(e.byRoom[room], p.ID)
	log.Info().Str("module", "app.polls").Str("poll", string(p.ID)).Str("room", string(room)).Int("options", len(p.Options)).Msg("poll created")
	return p, nil
}

func (e *PollEngine) Get(id domain.PollID) (*domain.Poll, bool) {
	p, ok := e.polls[id]
	return p, ok
}

// Vote records voterKey's choice. found is false for unknown polls, which
// callers ignore without telling the voter.
func (e *PollEngine) Vote(id domain.PollID, idx int, voterKey string) (p *domain.Poll, found bool, err error) {
	p, found = e.polls[id]
	if !found {
		log.Debug().Str("module", "app.polls").Str("poll", string(id)).Msg("vote for unknown poll ignored")
		return nil, false, nil
	}
	if err := p.Vote(voterKey, idx); err != nil {
		return p, true, err
	}
	log.Debug().Str("module", "app.polls").Str("poll", string(id)).Int("option", idx).Int("total", p.TotalVotes()).Msg("vote recorded")
	return p, true, nil
}

// PurgeRoom drops every poll owned by room and reports how many went away.
func (e *PollEngine) PurgeRoom(room domain.RoomID) int {
	ids := e.byRoom[room]
	for _, id := range ids {
		delete(e.polls, id)
	}
	delete(e.byRoom, room)
	if len(ids) > 0 {
		log.Info().Str("module", "app.polls").Str("room", string(room)).Int("polls", len(ids)).Msg("polls purged")
	}
	return len(ids)
}

func (e *PollEngine) Len() int { return len(e.polls) }
