package refdata

import (
	"context"
	"sync"
	"time"

	"LureScan/internal/domain/models"
	drepo "LureScan/internal/domain/repository"
	"LureScan/pkg/logger"
)

// Store caches float-share reference data in memory with TTL refresh.
// Reference rows change at most daily, so a stale snapshot beats a failed
// reload.
type Store struct {
	src drepo.ReferenceSource
	ttl time.Duration
	log *logger.Logger

	mu       sync.RWMutex
	data     map[string]models.ReferenceInfo
	loadedAt time.Time
}

func NewStore(src drepo.ReferenceSource, ttl time.Duration, log *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{src: src, ttl: ttl, log: log}
}

// LoadAll returns the cached snapshot, reloading from the source when stale.
func (s *Store) LoadAll(ctx context.Context) (map[string]models.ReferenceInfo, error) {
	s.mu.RLock()
	fresh := s.data != nil && time.Since(s.loadedAt) < s.ttl
	snapshot := s.data
	s.mu.RUnlock()

	if fresh {
		return snapshot, nil
	}

	data, err := s.src.LoadAll(ctx)
	if err != nil {
		if snapshot != nil {
			s.log.Warn("reference reload failed, serving stale snapshot",
				logger.Error(err),
				logger.Int("symbols", len(snapshot)))
			return snapshot, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.data = data
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.log.Info("reference data loaded", logger.Int("symbols", len(data)))
	return data, nil
}

// Lookup returns one symbol's reference row from the current snapshot.
func (s *Store) Lookup(symbol string) (models.ReferenceInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[symbol]
	return r, ok
}

// Evict drops one symbol so the next LoadAll refreshes it. The snapshot map
// is shared with readers, so eviction replaces it instead of mutating it.
func (s *Store) Evict(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return
	}
	next := make(map[string]models.ReferenceInfo, len(s.data))
	for k, v := range s.data {
		if k != symbol {
			next[k] = v
		}
	}
	s.data = next
	s.loadedAt = time.Time{}
}

// Clear drops the whole snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	s.data = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}
