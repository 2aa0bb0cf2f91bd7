package client

import (
	"sync"
	"time"

	"github.com/dkeye/ChatJet/internal/domain"
)

// Scheduler owns one cancelable timer per ephemeral message.
type Scheduler struct {
	mu       sync.Mutex
	timers   map[domain.MessageID]*time.Timer
	onExpire func(domain.MessageID)
}

func NewScheduler(onExpire func(domain.MessageID)) *Scheduler {
	return &Scheduler{timers: make(map[domain.MessageID]*time.Timer), onExpire: onExpire}
}

// Schedule fires onExpire for id after delay, replacing any earlier timer.
func (s *Scheduler) Schedule(id domain.MessageID, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// A newer Schedule or a Cancel got here first.
		if s.timers[id] != t {
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.mu.Unlock()
		s.onExpire(id)
	})
	s.timers[id] = t
}

func (s *Scheduler) Cancel(id domain.MessageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Stop cancels every pending timer. The scheduler stays usable.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
