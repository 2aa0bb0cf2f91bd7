//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Store persists the single SessionRecord of this client.
type Store interface {
	// Load reports false when nothing was saved yet.
	Load() (SessionRecord, bool, error)
	Save(rec SessionRecord) error
	Clear() error
}

// MemoryStore keeps the record for the lifetime of the process.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load() (SessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return SessionRecord{}, false, nil
	}
	var rec SessionRecord
	if err := json.Unmarshal(s.raw, &rec); err != nil {
		return SessionRecord{}, false, fmt.Errorf("decode session: %w", err)
	}
	return rec, true, nil
}

func (s *MemoryStore) Save(rec SessionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.raw = nil
	s.mu.Unlock()
	return nil
}

var sessionKey = []byte("session:record")

// BadgerStore survives client restarts.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func NewBadgerStore(db *badger.DB) *BadgerStore { return &BadgerStore{db: db} }

func (s *BadgerStore) Load() (SessionRecord, bool, error) {
	var rec SessionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return SessionRecord{}, false, nil
	}
	if err != nil {
		return SessionRecord{}, false, fmt.Errorf("load session: %w", err)
	}
	return rec, true, nil
}

func (s *BadgerStore) Save(rec SessionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey, raw)
	})
}

func (s *BadgerStore) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey)
	})
}

func (s *BadgerStore) Close() error { return s.db.Close() }
