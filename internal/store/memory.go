package store

import (
	"context"
	"sort"
	"sync"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/datatype"
)

// MemoryStore keeps everything in mutex-guarded maps. It is the default
// backend and the one the tests run against.
type MemoryStore struct {
	mu             sync.RWMutex
	connectivities map[string]*datatype.Connectivity
	surfaces       map[string]*datatype.Surface
	bursts         map[string]*burst.Configuration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		connectivities: make(map[string]*datatype.Connectivity),
		surfaces:       make(map[string]*datatype.Surface),
		bursts:         make(map[string]*burst.Configuration),
	}
}

func (s *MemoryStore) Init(_ context.Context) error {
	return nil
}

func (s *MemoryStore) SaveConnectivity(_ context.Context, c *datatype.Connectivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connectivities[c.GID] = c
	return nil
}

func (s *MemoryStore) Connectivity(_ context.Context, gid string) (*datatype.Connectivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.connectivities[gid]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) SaveSurface(_ context.Context, surf *datatype.Surface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.surfaces[surf.GID] = surf
	return nil
}

func (s *MemoryStore) Surface(_ context.Context, gid string) (*datatype.Surface, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	surf, ok := s.surfaces[gid]
	if !ok {
		return nil, ErrNotFound
	}
	return surf, nil
}

func (s *MemoryStore) SaveBurst(_ context.Context, cfg *burst.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bursts[cfg.ID] = cfg.Clone()
	return nil
}

func (s *MemoryStore) Burst(_ context.Context, id string) (*burst.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.bursts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg.Clone(), nil
}

func (s *MemoryStore) Bursts(_ context.Context, project string) ([]*burst.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*burst.Configuration, 0, len(s.bursts))
	for _, cfg := range s.bursts {
		if cfg.Project != project {
			continue
		}
		out = append(out, cfg.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeleteBurst(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bursts[id]; !ok {
		return ErrNotFound
	}
	delete(s.bursts, id)
	return nil
}
