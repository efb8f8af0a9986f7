// Package spatial holds the editing state of the surface
// model-parameters page: which equation is applied to which model
// parameter, and where its focal points sit on the cortical surface.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/nsiona/tvb-framework/internal/datatype"
	"github.com/nsiona/tvb-framework/internal/equations"
	"github.com/nsiona/tvb-framework/internal/neural"
)

// ErrUnknownParameter reports an operation on a parameter the model
// cannot spatialize.
var ErrUnknownParameter = errors.New("spatial: unknown parameter")

// ErrNoEquation reports a focal point operation before any equation was
// applied to the parameter.
var ErrNoEquation = errors.New("spatial: no equation applied")

// FocalPoint is one picked location: the triangle the user clicked and
// the vertex used for distance computations.
type FocalPoint struct {
	VertexIndex   int `json:"vertex_index"`
	TriangleIndex int `json:"triangle_index"`
}

// AppliedEquation couples a profile equation with its focal points.
type AppliedEquation struct {
	Equation    *equations.Equation `json:"equation"`
	FocalPoints []FocalPoint        `json:"focal_points"`
}

// Context is the per-session editing state. It is created fresh every
// time the page is opened and mutated by the pick/apply endpoints.
type Context struct {
	mu        sync.Mutex
	modelName string
	params    []neural.ParamDesc
	applied   map[string]*AppliedEquation
}

// NewContext builds an editing context for the model's spatializable
// parameters.
func NewContext(model neural.Model) *Context {
	return &Context{
		modelName: model.Name(),
		params:    neural.SpatializableParameters(model),
		applied:   make(map[string]*AppliedEquation),
	}
}

// ModelName returns the model being edited.
func (c *Context) ModelName() string {
	return c.modelName
}

// ParamDescs returns the editable parameter descriptors in declaration
// order.
func (c *Context) ParamDescs() []neural.ParamDesc {
	out := make([]neural.ParamDesc, len(c.params))
	copy(out, c.params)
	return out
}

// HasParam reports whether the parameter can be spatialized.
func (c *Context) HasParam(name string) bool {
	for _, desc := range c.params {
		if desc.Name == name {
			return true
		}
	}
	return false
}

// ApplyEquation records the equation for a parameter, clearing focal
// points from any previous one.
func (c *Context) ApplyEquation(param string, eq *equations.Equation) error {
	if !c.HasParam(param) {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, param)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied[param] = &AppliedEquation{Equation: eq, FocalPoints: make([]FocalPoint, 0)}
	return nil
}

// Equation returns the equation applied to a parameter.
func (c *Context) Equation(param string) (*equations.Equation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied, ok := c.applied[param]
	if !ok {
		return nil, false
	}
	return applied.Equation, true
}

// AddFocalPoint records a pick on the surface. The picked triangle's
// first vertex anchors distance computations.
func (c *Context) AddFocalPoint(param string, surf *datatype.Surface, triangleIndex int) (FocalPoint, error) {
	if !c.HasParam(param) {
		return FocalPoint{}, fmt.Errorf("%w: %s", ErrUnknownParameter, param)
	}
	if triangleIndex < 0 || triangleIndex >= surf.NumberOfTriangles() {
		return FocalPoint{}, fmt.Errorf("triangle %d out of range", triangleIndex)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	applied, ok := c.applied[param]
	if !ok {
		return FocalPoint{}, fmt.Errorf("%w: %s", ErrNoEquation, param)
	}
	point := FocalPoint{
		VertexIndex:   surf.Triangles[triangleIndex][0],
		TriangleIndex: triangleIndex,
	}
	for _, existing := range applied.FocalPoints {
		if existing.VertexIndex == point.VertexIndex {
			return existing, nil
		}
	}
	applied.FocalPoints = append(applied.FocalPoints, point)
	return point, nil
}

// RemoveFocalPoint drops the focal point anchored at a vertex.
func (c *Context) RemoveFocalPoint(param string, vertexIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied, ok := c.applied[param]
	if !ok {
		return false
	}
	for i, point := range applied.FocalPoints {
		if point.VertexIndex == vertexIndex {
			applied.FocalPoints = append(applied.FocalPoints[:i], applied.FocalPoints[i+1:]...)
			return true
		}
	}
	return false
}

// FocalPoints returns the focal points recorded for a parameter.
func (c *Context) FocalPoints(param string) []FocalPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied, ok := c.applied[param]
	if !ok {
		return nil
	}
	out := make([]FocalPoint, len(applied.FocalPoints))
	copy(out, applied.FocalPoints)
	return out
}

// Applied returns a copy of the parameter to equation mapping for
// submission into a configuration.
func (c *Context) Applied() map[string]*AppliedEquation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*AppliedEquation, len(c.applied))
	for param, applied := range c.applied {
		out[param] = &AppliedEquation{
			Equation:    applied.Equation.Clone(),
			FocalPoints: append([]FocalPoint(nil), applied.FocalPoints...),
		}
	}
	return out
}

// ConfigureInfo is the applied-equations snapshot the page renders: one
// entry per parameter that has an equation.
func (c *Context) ConfigureInfo() map[string]*AppliedEquation {
	return c.Applied()
}

// EvaluateOnSurface computes the parameter's spatial profile: for every
// vertex, the equation evaluated on the euclidean distance to the
// nearest focal vertex.
func (c *Context) EvaluateOnSurface(param string, surf *datatype.Surface) ([]float64, error) {
	c.mu.Lock()
	applied, ok := c.applied[param]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoEquation, param)
	}
	eq := applied.Equation.Clone()
	focal := append([]FocalPoint(nil), applied.FocalPoints...)
	c.mu.Unlock()

	if len(focal) == 0 {
		return nil, fmt.Errorf("%w: %s has no focal points", ErrNoEquation, param)
	}

	values := make([]float64, len(surf.Vertices))
	for i, vertex := range surf.Vertices {
		nearest := math.Inf(1)
		for _, point := range focal {
			d := distance(vertex, surf.Vertices[point.VertexIndex])
			if d < nearest {
				nearest = d
			}
		}
		values[i] = eq.Evaluate(nearest)
	}
	return values, nil
}

func distance(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
