package domain

import (
	"github.com/samber/lo"
)

type PollID string

type PollOption struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Poll keeps one recorded choice per voter key, so the option counts always
// add up to the number of distinct voters.
type Poll struct {
	ID       PollID       `json:"id"`
	RoomID   RoomID       `json:"roomId"`
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
	Creator  string       `json:"creator"`

	voters map[string]int
}

func NewPoll(id PollID, room RoomID, question string, options []string, creator string) *Poll {
	return &Poll{
		ID:       id,
		RoomID:   room,
		Question: question,
		Options: lo.Map(options, func(text string, _ int) PollOption {
			return PollOption{Text: text}
		}),
		Creator: creator,
		voters:  make(map[string]int),
	}
}

// Vote moves voterKey's single vote to option idx. Voting again for the same
// option is a decrement followed by an increment.
func (p *Poll) Vote(voterKey string, idx int) error {
	if idx < 0 || idx >= len(p.Options) {
		return Validation("Invalid poll option")
	}
	if prev, ok := p.voters[voterKey]; ok {
		p.Options[prev].Count--
	}
	p.Options[idx].Count++
	p.voters[voterKey] = idx
	return nil
}

func (p *Poll) TotalVotes() int {
	return lo.SumBy(p.Options, func(o PollOption) int { return o.Count })
}

func (p *Poll) VoterCount() int { return len(p.voters) }

// Choice returns the option index voterKey last chose.
func (p *Poll) Choice(voterKey string) (int, bool) {
	idx, ok := p.voters[voterKey]
	return idx, ok
}

// Snapshot is a copy safe to hand to encoders outside the dispatch loop.
func (p *Poll) Snapshot() Poll {
	cp := *p
	cp.Options = append([]PollOption(nil), p.Options...)
	cp.voters = nil
	return cp
}
