package session

import (
	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/spatial"
)

// BurstConfig returns the configuration being edited in this session.
func BurstConfig(s *Session) (*burst.Configuration, bool) {
	v, ok := s.Get(KeyBurstConfig)
	if !ok {
		return nil, false
	}
	cfg, ok := v.(*burst.Configuration)
	return cfg, ok
}

// SetBurstConfig stores the configuration being edited.
func SetBurstConfig(s *Session, cfg *burst.Configuration) {
	s.Set(KeyBurstConfig, cfg)
}

// ClearBurstConfig drops the configuration being edited.
func ClearBurstConfig(s *Session) {
	s.Delete(KeyBurstConfig)
}

// SurfaceContext returns the surface parameters editing context.
func SurfaceContext(s *Session) (*spatial.Context, bool) {
	v, ok := s.Get(KeySurfaceContext)
	if !ok {
		return nil, false
	}
	c, ok := v.(*spatial.Context)
	return c, ok
}

// SetSurfaceContext stores the surface parameters editing context.
func SetSurfaceContext(s *Session, c *spatial.Context) {
	s.Set(KeySurfaceContext, c)
}

// ClearSurfaceContext drops the surface parameters editing context.
func ClearSurfaceContext(s *Session) {
	s.Delete(KeySurfaceContext)
}

// Project returns the project the session works in.
func Project(s *Session) (string, bool) {
	v, ok := s.Get(KeyProject)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// SetProject stores the project the session works in.
func SetProject(s *Session, name string) {
	s.Set(KeyProject, name)
}
