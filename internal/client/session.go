package client

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSessionTimeout   = 2 * time.Minute
	DefaultActivityDebounce = time.Second
	DefaultHistoryLimit     = 50
)

// HistoryEntry is one message or poll event as received for a room.
type HistoryEntry struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// SessionRecord is everything the client remembers between runs. Room
// secrets are never part of it.
type SessionRecord struct {
	DisplayName   string                    `json:"displayName,omitempty"`
	CurrentRoomID string                    `json:"currentRoomId,omitempty"`
	LastActiveAt  time.Time                 `json:"lastActiveAt"`
	VoterKey      string                    `json:"voterKey,omitempty"`
	HistoryByRoom map[string][]HistoryEntry `json:"historyByRoom,omitempty"`
}

type SessionOptions struct {
	Timeout      time.Duration
	Debounce     time.Duration
	HistoryLimit int
	Now          func() time.Time
	// OnWipe runs after an inactivity wipe, outside the session lock.
	OnWipe func()
}

// Session is the process-wide SessionRecord with write-through persistence.
type Session struct {
	mu    sync.Mutex
	rec   SessionRecord
	store Store
	opts  SessionOptions
}

// NewSession restores the stored record unless it already timed out.
func NewSession(store Store, opts SessionOptions) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSessionTimeout
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultActivityDebounce
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{store: store, opts: opts}

	rec, ok, err := store.Load()
	if err != nil {
		return nil, err
	}
	now := opts.Now()
	switch {
	case !ok:
		s.rec.LastActiveAt = now
	case now.Sub(rec.LastActiveAt) >= opts.Timeout:
		log.Info().Str("module", "client.session").Msg("stored session expired")
		if err := store.Clear(); err != nil {
			return nil, err
		}
		s.rec.LastActiveAt = now
	default:
		s.rec = rec
	}
	return s, nil
}

// Touch records user activity, at most once per debounce interval. It
// reports whether the timestamp moved.
func (s *Session) Touch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	if now.Sub(s.rec.LastActiveAt) < s.opts.Debounce {
		return false
	}
	s.rec.LastActiveAt = now
	s.saveLocked()
	return true
}

// Joined persists the identity after a successful join.
func (s *Session) Joined(name, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.rec.DisplayName = name
	}
	s.rec.CurrentRoomID = roomID
	s.saveLocked()
}

// Left forgets the current room but keeps the name.
func (s *Session) Left() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.CurrentRoomID = ""
	s.saveLocked()
}

// Append adds an event to roomID's history, evicting the oldest entries
// beyond the limit.
func (s *Session) Append(roomID string, e HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.HistoryByRoom == nil {
		s.rec.HistoryByRoom = make(map[string][]HistoryEntry)
	}
	h := append(s.rec.HistoryByRoom[roomID], e)
	if over := len(h) - s.opts.HistoryLimit; over > 0 {
		h = slices.Delete(h, 0, over)
	}
	s.rec.HistoryByRoom[roomID] = h
	s.saveLocked()
}

// Remove drops history entries of roomID matching drop.
func (s *Session) Remove(roomID string, drop func(HistoryEntry) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rec.HistoryByRoom[roomID]
	if !ok {
		return
	}
	s.rec.HistoryByRoom[roomID] = slices.DeleteFunc(h, drop)
	s.saveLocked()
}

func (s *Session) ClearHistory(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rec.HistoryByRoom, roomID)
	s.saveLocked()
}

func (s *Session) History(roomID string) []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rec.HistoryByRoom[roomID])
}

// VoterKey returns the durable poll identity, creating it on first use.
func (s *Session) VoterKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.VoterKey == "" {
		s.rec.VoterKey = uuid.NewString()
		s.saveLocked()
	}
	return s.rec.VoterKey
}

func (s *Session) Record() SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.rec
	rec.HistoryByRoom = make(map[string][]HistoryEntry, len(s.rec.HistoryByRoom))
	for k, v := range s.rec.HistoryByRoom {
		rec.HistoryByRoom[k] = slices.Clone(v)
	}
	return rec
}

// Remaining is the time left before the inactivity wipe.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(s.opts.Timeout-s.opts.Now().Sub(s.rec.LastActiveAt), 0)
}

// Check wipes all session state once the timeout elapsed without activity.
// It reports whether it wiped. A session with nothing left to wipe is skipped.
func (s *Session) Check() bool {
	s.mu.Lock()
	now := s.opts.Now()
	if now.Sub(s.rec.LastActiveAt) < s.opts.Timeout || s.rec.empty() {
		s.mu.Unlock()
		return false
	}
	s.rec = SessionRecord{LastActiveAt: now}
	if err := s.store.Clear(); err != nil {
		log.Error().Err(err).Str("module", "client.session").Msg("clear store")
	}
	s.mu.Unlock()

	log.Info().Str("module", "client.session").Msg("session wiped after inactivity")
	if s.opts.OnWipe != nil {
		s.opts.OnWipe()
	}
	return true
}

func (r SessionRecord) empty() bool {
	return r.DisplayName == "" && r.CurrentRoomID == "" && r.VoterKey == "" && len(r.HistoryByRoom) == 0
}

// RejoinPlan says what to do on (re)connect.
type RejoinPlan struct {
	Name   string
	RoomID string
	// Auto is set only for the public room; private and direct rooms need
	// their secret typed again.
	Auto bool
}

func (s *Session) RejoinPlan() (RejoinPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.DisplayName == "" || s.rec.CurrentRoomID == "" {
		return RejoinPlan{Name: s.rec.DisplayName}, false
	}
	return RejoinPlan{
		Name:   s.rec.DisplayName,
		RoomID: s.rec.CurrentRoomID,
		Auto:   domain.RoomID(s.rec.CurrentRoomID) == domain.PublicRoomID,
	}, true
}

func (s *Session) saveLocked() {
	if err := s.store.Save(s.rec); err != nil {
		log.Error().Err(err).Str("module", "client.session").Msg("save session")
	}
}
