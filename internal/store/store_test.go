package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/datatype"
	"github.com/nsiona/tvb-framework/internal/gid"
)

func testBackends(t *testing.T) map[string]Store {
	t.Helper()
	backends := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "store.db")),
	}
	for name, s := range backends {
		if err := s.Init(context.Background()); err != nil {
			t.Fatalf("init %s backend: %v", name, err)
		}
	}
	return backends
}

func storedConnectivity() *datatype.Connectivity {
	return &datatype.Connectivity{
		GID:          gid.New(),
		Project:      "default",
		Label:        "demo",
		Created:      time.Now().UTC(),
		RegionLabels: []string{"rA", "rB"},
		Centres:      [][3]float64{{0, 0, 0}, {10, 0, 0}},
		Weights:      [][]float64{{0, 1}, {1, 0}},
		TractLengths: [][]float64{{0, 10}, {10, 0}},
	}
}

func storedSurface() *datatype.Surface {
	return &datatype.Surface{
		GID:       gid.New(),
		Project:   "default",
		Label:     "demo",
		Created:   time.Now().UTC(),
		Vertices:  [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   [][3]float64{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Triangles: [][3]int{{0, 1, 2}},
	}
}

func TestStoreDatatypeRoundTrip(t *testing.T) {
	for name, s := range testBackends(t) {
		ctx := context.Background()

		conn := storedConnectivity()
		if err := s.SaveConnectivity(ctx, conn); err != nil {
			t.Fatalf("%s: save connectivity: %v", name, err)
		}
		gotConn, err := s.Connectivity(ctx, conn.GID)
		if err != nil {
			t.Fatalf("%s: load connectivity: %v", name, err)
		}
		if gotConn.Label != "demo" || gotConn.NumberOfRegions() != 2 {
			t.Fatalf("%s: connectivity lost data: %+v", name, gotConn)
		}
		if gotConn.Weights[0][1] != 1 {
			t.Fatalf("%s: weights lost: %v", name, gotConn.Weights)
		}

		surf := storedSurface()
		if err := s.SaveSurface(ctx, surf); err != nil {
			t.Fatalf("%s: save surface: %v", name, err)
		}
		gotSurf, err := s.Surface(ctx, surf.GID)
		if err != nil {
			t.Fatalf("%s: load surface: %v", name, err)
		}
		if gotSurf.NumberOfVertices() != 3 || gotSurf.NumberOfTriangles() != 1 {
			t.Fatalf("%s: surface lost geometry: %+v", name, gotSurf)
		}

		if _, err := s.Connectivity(ctx, gid.New()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
		if _, err := s.Surface(ctx, gid.New()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestStoreBurstRoundTrip(t *testing.T) {
	for name, s := range testBackends(t) {
		ctx := context.Background()

		cfg := burst.NewConfiguration("default")
		cfg.SetParameter(burst.ParamConnectivity, gid.New())
		if err := s.SaveBurst(ctx, cfg); err != nil {
			t.Fatalf("%s: save burst: %v", name, err)
		}

		cfg.SetParameter(burst.ParamModel, "WilsonCowan")

		got, err := s.Burst(ctx, cfg.ID)
		if err != nil {
			t.Fatalf("%s: load burst: %v", name, err)
		}
		if v, _ := got.Parameter(burst.ParamModel); v != "Generic2dOscillator" {
			t.Fatalf("%s: save must copy, model changed to %q", name, v)
		}
		gotNames := got.ParameterNames()
		wantNames := burst.DefaultSimulatorConfiguration().Names()
		if len(gotNames) < len(wantNames) || gotNames[0] != wantNames[0] {
			t.Fatalf("%s: parameter order lost, got %d names %v", name, len(gotNames), gotNames)
		}

		if _, err := s.Burst(ctx, gid.New()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestStoreBurstsListsProjectNewestFirst(t *testing.T) {
	for name, s := range testBackends(t) {
		ctx := context.Background()

		older := burst.NewConfiguration("default")
		older.Name = "older"
		older.Created = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := burst.NewConfiguration("default")
		newer.Name = "newer"
		newer.Created = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		elsewhere := burst.NewConfiguration("other")

		for _, cfg := range []*burst.Configuration{older, newer, elsewhere} {
			if err := s.SaveBurst(ctx, cfg); err != nil {
				t.Fatalf("%s: save: %v", name, err)
			}
		}

		got, err := s.Bursts(ctx, "default")
		if err != nil {
			t.Fatalf("%s: list: %v", name, err)
		}
		if len(got) != 2 {
			t.Fatalf("%s: expected 2 bursts, got %d", name, len(got))
		}
		if got[0].Name != "newer" || got[1].Name != "older" {
			t.Fatalf("%s: expected newest first, got %s then %s", name, got[0].Name, got[1].Name)
		}
	}
}

func TestStoreDeleteBurst(t *testing.T) {
	for name, s := range testBackends(t) {
		ctx := context.Background()

		cfg := burst.NewConfiguration("default")
		if err := s.SaveBurst(ctx, cfg); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
		if err := s.DeleteBurst(ctx, cfg.ID); err != nil {
			t.Fatalf("%s: delete: %v", name, err)
		}
		if _, err := s.Burst(ctx, cfg.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected deleted burst to miss, got %v", name, err)
		}
		if err := s.DeleteBurst(ctx, cfg.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected second delete to report ErrNotFound, got %v", name, err)
		}
	}
}

func TestNewStoreFactory(t *testing.T) {
	s, err := NewStore("", "")
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected memory store for empty kind, got %T", s)
	}
	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatalf("expected unsupported backend to fail")
	}
	sq, err := NewStore("sqlite", filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if err := sq.Init(context.Background()); err != nil {
		t.Fatalf("sqlite init: %v", err)
	}
	if err := CloseIfSupported(sq); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}
	if err := CloseIfSupported(NewMemoryStore()); err != nil {
		t.Fatalf("close memory: %v", err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	s := NewSQLiteStore("")
	if err := s.Init(context.Background()); err == nil {
		t.Fatalf("expected empty path to fail")
	}
	if _, err := s.Burst(context.Background(), gid.New()); err == nil {
		t.Fatalf("expected uninitialized store to fail")
	}
}
