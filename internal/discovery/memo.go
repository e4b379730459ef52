package discovery

import (
	"encoding/json"
	"hash/fnv"
	"sync"

	"studyabroad-workers/internal/models"
)

// Memo caches the result of the most recent Filter call, keyed by a
// fingerprint of the list and query contents.
type Memo struct {
	mu     sync.Mutex
	key    uint64
	valid  bool
	result []models.University
	hits   int
	misses int
}

func (m *Memo) Filter(universities []models.University, q Query) []models.University {
	key, ok := fingerprint(universities, q)

	m.mu.Lock()
	defer m.mu.Unlock()
	if ok && m.valid && m.key == key {
		m.hits++
		return clone(m.result)
	}
	m.misses++
	res := Filter(universities, q)
	m.key, m.valid, m.result = key, ok, res
	return clone(res)
}

// Stats reports cache hits and misses.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

func fingerprint(universities []models.University, q Query) (uint64, bool) {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	if err := enc.Encode(universities); err != nil {
		return 0, false
	}
	if err := enc.Encode(q); err != nil {
		return 0, false
	}
	return h.Sum64(), true
}

func clone(in []models.University) []models.University {
	out := make([]models.University, len(in))
	copy(out, in)
	return out
}
