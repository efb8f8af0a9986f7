package datatype

import (
	"fmt"
	"sync"
	"time"
)

// MaxChunkVertices caps how many vertices a single geometry chunk may
// hold. WebGL index buffers address vertices with unsigned shorts, so
// every chunk must stay below the 16-bit limit.
const MaxChunkVertices = 65536

// Surface is a triangulated cortical mesh. Rendering endpoints serve it
// in chunks; picking endpoints serve a triangle-exploded copy so the
// client can color-code individual triangles.
type Surface struct {
	GID     string    `json:"gid"`
	Project string    `json:"project"`
	Label   string    `json:"label"`
	Created time.Time `json:"created"`

	Vertices  [][3]float64 `json:"vertices"`
	Normals   [][3]float64 `json:"normals"`
	Triangles [][3]int     `json:"triangles"`

	pickMu       sync.Mutex
	pickBuilt    bool
	pickVertices [][3]float64
	pickNormals  [][3]float64
}

// NumberOfVertices returns the vertex count of the mesh.
func (s *Surface) NumberOfVertices() int {
	return len(s.Vertices)
}

// NumberOfTriangles returns the triangle count of the mesh.
func (s *Surface) NumberOfTriangles() int {
	return len(s.Triangles)
}

// Center returns the mean vertex, used as the camera focus when the
// surface is first displayed.
func (s *Surface) Center() [3]float64 {
	var center [3]float64
	if len(s.Vertices) == 0 {
		return center
	}
	for _, v := range s.Vertices {
		center[0] += v[0]
		center[1] += v[1]
		center[2] += v[2]
	}
	n := float64(len(s.Vertices))
	center[0] /= n
	center[1] /= n
	center[2] /= n
	return center
}

// Validate checks the structural invariants: normals matching vertices,
// triangle indices in range, and every triangle confined to a single
// vertex chunk so chunked index buffers stay self-contained.
func (s *Surface) Validate() error {
	n := len(s.Vertices)
	if n == 0 {
		return fmt.Errorf("surface %s: no vertices", s.GID)
	}
	if len(s.Normals) != n {
		return fmt.Errorf("surface %s: %d normals for %d vertices", s.GID, len(s.Normals), n)
	}
	if len(s.Triangles) == 0 {
		return fmt.Errorf("surface %s: no triangles", s.GID)
	}
	for i, tri := range s.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= n {
				return fmt.Errorf("surface %s: triangle %d references vertex %d of %d", s.GID, i, idx, n)
			}
		}
		if tri[0]/MaxChunkVertices != tri[1]/MaxChunkVertices || tri[0]/MaxChunkVertices != tri[2]/MaxChunkVertices {
			return fmt.Errorf("surface %s: triangle %d spans vertex chunks", s.GID, i)
		}
	}
	return nil
}

// ChunkCount reports how many vertex chunks the display geometry uses.
func (s *Surface) ChunkCount() int {
	return chunkCount(len(s.Vertices), MaxChunkVertices)
}

// VertexChunk returns the vertices of one display chunk.
func (s *Surface) VertexChunk(chunk int) ([][3]float64, error) {
	lo, hi, err := chunkRange(chunk, len(s.Vertices), MaxChunkVertices)
	if err != nil {
		return nil, err
	}
	return s.Vertices[lo:hi], nil
}

// NormalChunk returns the per-vertex normals of one display chunk.
func (s *Surface) NormalChunk(chunk int) ([][3]float64, error) {
	lo, hi, err := chunkRange(chunk, len(s.Normals), MaxChunkVertices)
	if err != nil {
		return nil, err
	}
	return s.Normals[lo:hi], nil
}

// TriangleChunk returns the triangles whose vertices live in the given
// chunk, with indices re-based to the chunk's first vertex.
func (s *Surface) TriangleChunk(chunk int) ([][3]int, error) {
	if chunk < 0 || chunk >= s.ChunkCount() {
		return nil, fmt.Errorf("surface %s: chunk %d out of range", s.GID, chunk)
	}
	return rebasedTriangles(s.Triangles, chunk, MaxChunkVertices), nil
}

// PickChunkCount reports how many chunks the exploded pick geometry
// uses. Each triangle contributes three dedicated vertices.
func (s *Surface) PickChunkCount() int {
	return chunkCount(len(s.Triangles), trianglesPerPickChunk(MaxChunkVertices))
}

// PickVertexChunk returns one chunk of the triangle-exploded vertices.
func (s *Surface) PickVertexChunk(chunk int) ([][3]float64, error) {
	s.ensurePick()
	lo, hi, err := chunkRange(chunk, len(s.pickVertices), 3*trianglesPerPickChunk(MaxChunkVertices))
	if err != nil {
		return nil, err
	}
	return s.pickVertices[lo:hi], nil
}

// PickNormalChunk returns one chunk of the triangle-exploded normals.
func (s *Surface) PickNormalChunk(chunk int) ([][3]float64, error) {
	s.ensurePick()
	lo, hi, err := chunkRange(chunk, len(s.pickNormals), 3*trianglesPerPickChunk(MaxChunkVertices))
	if err != nil {
		return nil, err
	}
	return s.pickNormals[lo:hi], nil
}

// PickTriangleChunk returns the index buffer for one pick chunk. The
// exploded vertices are consumed in order, so indices are sequential
// within the chunk.
func (s *Surface) PickTriangleChunk(chunk int) ([][3]int, error) {
	perChunk := trianglesPerPickChunk(MaxChunkVertices)
	lo, hi, err := chunkRange(chunk, len(s.Triangles), perChunk)
	if err != nil {
		return nil, err
	}
	tris := make([][3]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		base := (i - lo) * 3
		tris = append(tris, [3]int{base, base + 1, base + 2})
	}
	return tris, nil
}

// ensurePick builds the exploded buffers on first use. They are derived
// data, so they are not serialized with the surface.
func (s *Surface) ensurePick() {
	s.pickMu.Lock()
	defer s.pickMu.Unlock()
	if s.pickBuilt {
		return
	}
	s.pickVertices = make([][3]float64, 0, 3*len(s.Triangles))
	s.pickNormals = make([][3]float64, 0, 3*len(s.Triangles))
	for _, tri := range s.Triangles {
		for _, idx := range tri {
			s.pickVertices = append(s.pickVertices, s.Vertices[idx])
			s.pickNormals = append(s.pickNormals, s.Normals[idx])
		}
	}
	s.pickBuilt = true
}

func trianglesPerPickChunk(limit int) int {
	per := limit / 3
	if per < 1 {
		per = 1
	}
	return per
}

func chunkCount(n, limit int) int {
	if n <= 0 {
		return 0
	}
	return (n + limit - 1) / limit
}

func chunkRange(chunk, n, limit int) (int, int, error) {
	if chunk < 0 || chunk >= chunkCount(n, limit) {
		return 0, 0, fmt.Errorf("chunk %d out of range", chunk)
	}
	lo := chunk * limit
	hi := lo + limit
	if hi > n {
		hi = n
	}
	return lo, hi, nil
}

// rebasedTriangles selects the triangles whose vertices fall in the
// given vertex chunk and shifts their indices to chunk-local values.
func rebasedTriangles(triangles [][3]int, chunk, limit int) [][3]int {
	lo := chunk * limit
	hi := lo + limit
	out := make([][3]int, 0)
	for _, tri := range triangles {
		if tri[0] < lo || tri[0] >= hi {
			continue
		}
		out = append(out, [3]int{tri[0] - lo, tri[1] - lo, tri[2] - lo})
	}
	return out
}
