// Package fixtures builds deterministic demo datatypes and simulator
// parameter sets. The controller tests and the seed command use it to
// populate a store with enough data to exercise the full workflow.
package fixtures

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/datatype"
	"github.com/nsiona/tvb-framework/internal/gid"
	"github.com/nsiona/tvb-framework/internal/neural"
	"github.com/nsiona/tvb-framework/internal/store"
)

// Demo geometry dimensions.
const (
	DefaultRegions  = 16
	DefaultRings    = 8
	DefaultSegments = 12

	connectivityRadius = 60.0
	surfaceRadius      = 75.0
)

// seed keeps the generated weights identical across runs.
const seed = 73

// CreateConnectivity stores a ring-lattice demo connectivity: regions
// on a circle, each coupled to its two nearest neighbours on either
// side, tract lengths from centre distances.
func CreateConnectivity(ctx context.Context, st store.Store, project string) (*datatype.Connectivity, error) {
	conn := demoConnectivity(project)
	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("demo connectivity: %w", err)
	}
	if err := st.SaveConnectivity(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// CreateSurface stores a demo cortical surface: a UV sphere with
// outward unit normals.
func CreateSurface(ctx context.Context, st store.Store, project string) (*datatype.Surface, error) {
	surf := demoSurface(project)
	if err := surf.Validate(); err != nil {
		return nil, fmt.Errorf("demo surface: %w", err)
	}
	if err := st.SaveSurface(ctx, surf); err != nil {
		return nil, err
	}
	return surf, nil
}

func demoConnectivity(project string) *datatype.Connectivity {
	rng := rand.New(rand.NewSource(seed))
	n := DefaultRegions

	labels := make([]string, n)
	centres := make([][3]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = fmt.Sprintf("region_%02d", i)
		angle := 2 * math.Pi * float64(i) / float64(n)
		centres[i] = [3]float64{
			connectivityRadius * math.Cos(angle),
			connectivityRadius * math.Sin(angle),
			10 * math.Sin(2*angle),
		}
	}

	weights := squareMatrix(n)
	lengths := squareMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := centreDistance(centres[i], centres[j])
			lengths[i][j] = d
			lengths[j][i] = d

			offset := ringOffset(i, j, n)
			if offset > 2 {
				continue
			}
			w := 2.0/float64(offset) + 0.25*rng.Float64()
			weights[i][j] = w
			weights[j][i] = w
		}
	}

	return &datatype.Connectivity{
		GID:          gid.New(),
		Project:      project,
		Label:        fmt.Sprintf("ring connectivity %d", n),
		Created:      time.Now().UTC(),
		RegionLabels: labels,
		Centres:      centres,
		Weights:      weights,
		TractLengths: lengths,
	}
}

func demoSurface(project string) *datatype.Surface {
	vertices := make([][3]float64, 0, 2+(DefaultRings-1)*DefaultSegments)
	vertices = append(vertices, [3]float64{0, 0, surfaceRadius})
	for r := 1; r < DefaultRings; r++ {
		polar := math.Pi * float64(r) / float64(DefaultRings)
		for s := 0; s < DefaultSegments; s++ {
			azimuth := 2 * math.Pi * float64(s) / float64(DefaultSegments)
			vertices = append(vertices, [3]float64{
				surfaceRadius * math.Sin(polar) * math.Cos(azimuth),
				surfaceRadius * math.Sin(polar) * math.Sin(azimuth),
				surfaceRadius * math.Cos(polar),
			})
		}
	}
	south := len(vertices)
	vertices = append(vertices, [3]float64{0, 0, -surfaceRadius})

	normals := make([][3]float64, len(vertices))
	for i, v := range vertices {
		normals[i] = [3]float64{
			v[0] / surfaceRadius,
			v[1] / surfaceRadius,
			v[2] / surfaceRadius,
		}
	}

	ring := func(r, s int) int { return 1 + (r-1)*DefaultSegments + s%DefaultSegments }

	triangles := make([][3]int, 0, 2*DefaultSegments*(DefaultRings-1))
	for s := 0; s < DefaultSegments; s++ {
		triangles = append(triangles, [3]int{0, ring(1, s), ring(1, s+1)})
	}
	for r := 1; r < DefaultRings-1; r++ {
		for s := 0; s < DefaultSegments; s++ {
			a, b := ring(r, s), ring(r, s+1)
			c, d := ring(r+1, s), ring(r+1, s+1)
			triangles = append(triangles, [3]int{a, c, b}, [3]int{b, c, d})
		}
	}
	for s := 0; s < DefaultSegments; s++ {
		triangles = append(triangles, [3]int{south, ring(DefaultRings-1, s+1), ring(DefaultRings-1, s)})
	}

	return &datatype.Surface{
		GID:       gid.New(),
		Project:   project,
		Label:     "demo cortical sphere",
		Created:   time.Now().UTC(),
		Vertices:  vertices,
		Normals:   normals,
		Triangles: triangles,
	}
}

func squareMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func centreDistance(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func ringOffset(i, j, n int) int {
	d := j - i
	if d < 0 {
		d = -d
	}
	if n-d < d {
		d = n - d
	}
	return d
}

// Param is one simulator setting in form order.
type Param struct {
	Name  string
	Value string
}

// SimulatorParameters returns the canned parameter set of a complete
// launch configuration for the default model.
func SimulatorParameters() []Param {
	model := neural.DefaultName
	return []Param{
		{burst.ParamModel, model},
		{burst.ModelParamKey(model, "tau"), "[1.0]"},
		{burst.ModelParamKey(model, "a"), "[-2.0]"},
		{burst.ModelParamKey(model, "b"), "[-10.0]"},
		{burst.ModelParamKey(model, "c"), "[0.0]"},
		{burst.ModelParamKey(model, "d"), "[0.02]"},
		{burst.ModelParamKey(model, "e"), "[3.0]"},
		{burst.ModelParamKey(model, "f"), "[1.0]"},
		{burst.ModelParamKey(model, "g"), "[0.0]"},
		{burst.ModelParamKey(model, "alpha"), "[1.0]"},
		{burst.ModelParamKey(model, "beta"), "[1.0]"},
		{burst.ModelParamKey(model, "gamma"), "[1.0]"},
		{burst.ModelParamKey(model, "I"), "[0.0]"},
		{burst.ParamIntegrator, neural.DefaultIntegratorName},
		{burst.IntegratorParamKey(neural.DefaultIntegratorName, "dt"), "0.01220703125"},
		{burst.ParamMonitors, burst.DefaultMonitor},
		{burst.MonitorParamKey(burst.DefaultMonitor, "period"), "0.9765625"},
		{burst.ParamCoupling, burst.DefaultCoupling},
		{burst.CouplingParamKey(burst.DefaultCoupling, "a"), "[0.00390625]"},
		{burst.CouplingParamKey(burst.DefaultCoupling, "b"), "[0.0]"},
		{burst.ParamSimulationLength, "32.0"},
	}
}

// PopulateBurst replaces the configuration's simulator parameters with
// the canned set plus the two datatype references, every value wrapped
// in a record the way the browser posts them.
func PopulateBurst(cfg *burst.Configuration, connectivityGID, surfaceGID string) {
	sim := burst.NewSimulatorConfiguration()
	for _, p := range SimulatorParameters() {
		sim.Set(p.Name, p.Value)
	}
	sim.Set(burst.ParamConnectivity, connectivityGID)
	sim.Set(burst.ParamSurface, surfaceGID)
	cfg.Simulator = sim
}
