package store

import (
	"context"
	"encoding/json"
	"sync"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
)

// MemoryStore holds encoded records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	logger  logger.Logger
}

func NewMemoryStore(log logger.Logger) *MemoryStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &MemoryStore{records: make(map[string][]byte), logger: log}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return decode(s.logger, key, raw, dest), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError(err)
	}
	s.PutRaw(key, payload)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// PutRaw stores bytes without encoding them.
func (s *MemoryStore) PutRaw(key string, raw []byte) {
	s.mu.Lock()
	s.records[key] = append([]byte(nil), raw...)
	s.mu.Unlock()
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
