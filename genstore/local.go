package genstore

import (
	"context"
	"sync"
	"time"
)

type localGen struct {
	gen     uint64
	touched time.Time
}

// LocalGenStore keeps generations in process memory.
//
// With a cleanup interval and retention, keys not bumped for longer than
// retention are pruned. A pruned key restarts at 0, which only matters for
// entries still queued from before the prune, so keep retention well above
// the expected queue latency.
type LocalGenStore struct {
	mu   sync.RWMutex
	gens map[string]localGen

	stop      chan struct{}
	stopOnce  sync.Once
	pruneDone chan struct{}
}

var _ GenStore = (*LocalGenStore)(nil)

// NewLocalGenStore returns an in-process store. cleanupInterval or retention
// <= 0 disables pruning.
func NewLocalGenStore(cleanupInterval, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{
		gens: make(map[string]localGen),
		stop: make(chan struct{}),
	}
	if cleanupInterval > 0 && retention > 0 {
		s.pruneDone = make(chan struct{})
		go s.prune(cleanupInterval, retention)
	}
	return s
}

func (s *LocalGenStore) prune(every, retention time.Duration) {
	defer close(s.pruneDone)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Cleanup(retention)
		case <-s.stop:
			return
		}
	}
}

func (s *LocalGenStore) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[k].gen, nil
}

func (s *LocalGenStore) Bump(_ context.Context, k string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gens[k]
	g.gen++
	g.touched = time.Now()
	s.gens[k] = g
	return g.gen, nil
}

// Cleanup drops keys not bumped within retention.
func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.gens {
		if g.touched.Before(cutoff) {
			delete(s.gens, k)
		}
	}
}

// Len reports how many keys currently have a generation.
func (s *LocalGenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gens)
}

// Close stops the prune loop. Safe to call more than once.
func (s *LocalGenStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.pruneDone != nil {
			<-s.pruneDone
		}
	})
	return nil
}
