package spatial

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nsiona/tvb-framework/internal/datatype"
	"github.com/nsiona/tvb-framework/internal/equations"
	"github.com/nsiona/tvb-framework/internal/neural"
)

func quadSurface(t *testing.T) *datatype.Surface {
	t.Helper()
	surf := &datatype.Surface{
		Label: "quad",
		Vertices: [][3]float64{
			{0, 0, 0},
			{1, 0, 0},
			{1, 1, 0},
			{0, 1, 0},
		},
		Normals: [][3]float64{
			{0, 0, 1},
			{0, 0, 1},
			{0, 0, 1},
			{0, 0, 1},
		},
		Triangles: [][3]int{
			{0, 1, 2},
			{0, 2, 3},
		},
	}
	if err := surf.Validate(); err != nil {
		t.Fatalf("quad surface invalid: %v", err)
	}
	return surf
}

func defaultModel(t *testing.T) neural.Model {
	t.Helper()
	model, ok := neural.Lookup(neural.DefaultName)
	if !ok {
		t.Fatalf("model %s not registered", neural.DefaultName)
	}
	return model
}

func TestNewContextListsSpatializableParameters(t *testing.T) {
	ctx := NewContext(defaultModel(t))

	if ctx.ModelName() != neural.DefaultName {
		t.Fatalf("model name = %q, want %q", ctx.ModelName(), neural.DefaultName)
	}
	descs := ctx.ParamDescs()
	if len(descs) == 0 {
		t.Fatal("expected spatializable parameters")
	}
	if !ctx.HasParam(descs[0].Name) {
		t.Fatalf("HasParam(%q) = false", descs[0].Name)
	}
	if ctx.HasParam("no_such_param") {
		t.Fatal("HasParam accepted an unknown name")
	}
}

func TestApplyEquationRejectsUnknownParameter(t *testing.T) {
	ctx := NewContext(defaultModel(t))
	eq, err := equations.New(equations.DefaultName)
	if err != nil {
		t.Fatalf("new equation: %v", err)
	}

	if err := ctx.ApplyEquation("no_such_param", eq); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("apply to unknown parameter: err = %v, want ErrUnknownParameter", err)
	}
}

func TestFocalPointLifecycle(t *testing.T) {
	ctx := NewContext(defaultModel(t))
	surf := quadSurface(t)

	if _, err := ctx.AddFocalPoint("tau", surf, 0); !errors.Is(err, ErrNoEquation) {
		t.Fatalf("pick before apply: err = %v, want ErrNoEquation", err)
	}

	eq, err := equations.New(equations.DefaultName)
	if err != nil {
		t.Fatalf("new equation: %v", err)
	}
	if err := ctx.ApplyEquation("tau", eq); err != nil {
		t.Fatalf("apply equation: %v", err)
	}

	point, err := ctx.AddFocalPoint("tau", surf, 1)
	if err != nil {
		t.Fatalf("add focal point: %v", err)
	}
	if point.VertexIndex != 0 || point.TriangleIndex != 1 {
		t.Fatalf("focal point = %+v, want vertex 0 of triangle 1", point)
	}

	if _, err := ctx.AddFocalPoint("tau", surf, 7); err == nil {
		t.Fatal("expected error for triangle index out of range")
	}

	again, err := ctx.AddFocalPoint("tau", surf, 0)
	if err != nil {
		t.Fatalf("re-pick same vertex: %v", err)
	}
	if again.VertexIndex != 0 {
		t.Fatalf("re-pick vertex = %d, want 0", again.VertexIndex)
	}
	if got := len(ctx.FocalPoints("tau")); got != 1 {
		t.Fatalf("focal point count after duplicate pick = %d, want 1", got)
	}

	if !ctx.RemoveFocalPoint("tau", 0) {
		t.Fatal("remove existing focal point returned false")
	}
	if ctx.RemoveFocalPoint("tau", 0) {
		t.Fatal("remove of absent focal point returned true")
	}
	if got := len(ctx.FocalPoints("tau")); got != 0 {
		t.Fatalf("focal point count after removal = %d, want 0", got)
	}
}

func TestApplyEquationResetsFocalPoints(t *testing.T) {
	ctx := NewContext(defaultModel(t))
	surf := quadSurface(t)

	first, err := equations.New("Linear")
	if err != nil {
		t.Fatalf("new linear: %v", err)
	}
	if err := ctx.ApplyEquation("tau", first); err != nil {
		t.Fatalf("apply linear: %v", err)
	}
	if _, err := ctx.AddFocalPoint("tau", surf, 0); err != nil {
		t.Fatalf("add focal point: %v", err)
	}

	second, err := equations.New("Sigmoid")
	if err != nil {
		t.Fatalf("new sigmoid: %v", err)
	}
	if err := ctx.ApplyEquation("tau", second); err != nil {
		t.Fatalf("apply sigmoid: %v", err)
	}
	if got := len(ctx.FocalPoints("tau")); got != 0 {
		t.Fatalf("focal points survived re-apply, count = %d", got)
	}
	eq, ok := ctx.Equation("tau")
	if !ok || eq.Name() != "Sigmoid" {
		t.Fatalf("equation after re-apply = %v, want Sigmoid", eq)
	}
}

func TestEvaluateOnSurfaceUsesNearestFocalVertex(t *testing.T) {
	ctx := NewContext(defaultModel(t))
	surf := quadSurface(t)

	eq, err := equations.New("Gaussian")
	if err != nil {
		t.Fatalf("new gaussian: %v", err)
	}
	if err := ctx.ApplyEquation("tau", eq); err != nil {
		t.Fatalf("apply equation: %v", err)
	}

	if _, err := ctx.EvaluateOnSurface("tau", surf); !errors.Is(err, ErrNoEquation) {
		t.Fatalf("evaluate without focal points: err = %v, want ErrNoEquation", err)
	}

	if _, err := ctx.AddFocalPoint("tau", surf, 0); err != nil {
		t.Fatalf("add focal point: %v", err)
	}

	values, err := ctx.EvaluateOnSurface("tau", surf)
	if err != nil {
		t.Fatalf("evaluate on surface: %v", err)
	}
	if len(values) != surf.NumberOfVertices() {
		t.Fatalf("value count = %d, want %d", len(values), surf.NumberOfVertices())
	}
	if math.Abs(values[0]-1.0) > 1e-12 {
		t.Fatalf("value at focal vertex = %g, want 1", values[0])
	}
	want := math.Exp(-0.5)
	if math.Abs(values[1]-want) > 1e-12 {
		t.Fatalf("value at distance 1 = %g, want %g", values[1], want)
	}
	if values[1] <= values[2] {
		t.Fatalf("profile not decreasing with distance: %g then %g", values[1], values[2])
	}
}

func TestAppliedSnapshotIsDetached(t *testing.T) {
	ctx := NewContext(defaultModel(t))
	surf := quadSurface(t)

	eq, err := equations.New("Gaussian")
	if err != nil {
		t.Fatalf("new gaussian: %v", err)
	}
	if err := ctx.ApplyEquation("tau", eq); err != nil {
		t.Fatalf("apply equation: %v", err)
	}
	if _, err := ctx.AddFocalPoint("tau", surf, 0); err != nil {
		t.Fatalf("add focal point: %v", err)
	}

	snapshot := ctx.Applied()
	applied, ok := snapshot["tau"]
	if !ok {
		t.Fatal("snapshot missing tau")
	}
	if err := applied.Equation.SetParam("amp", 99); err != nil {
		t.Fatalf("mutate snapshot equation: %v", err)
	}
	applied.FocalPoints[0].VertexIndex = 42

	live, ok := ctx.Equation("tau")
	if !ok {
		t.Fatal("live equation missing")
	}
	amp, ok := live.Param("amp")
	if !ok {
		t.Fatal("live equation missing amp")
	}
	if amp != 1.0 {
		t.Fatalf("live amp = %g after snapshot mutation, want 1", amp)
	}
	if got := ctx.FocalPoints("tau")[0].VertexIndex; got != 0 {
		t.Fatalf("live focal vertex = %d after snapshot mutation, want 0", got)
	}
}

func TestAppliedEquationJSONShape(t *testing.T) {
	ctx := NewContext(defaultModel(t))
	surf := quadSurface(t)

	eq, err := equations.New("Gaussian")
	if err != nil {
		t.Fatalf("new gaussian: %v", err)
	}
	if err := ctx.ApplyEquation("tau", eq); err != nil {
		t.Fatalf("apply equation: %v", err)
	}
	if _, err := ctx.AddFocalPoint("tau", surf, 1); err != nil {
		t.Fatalf("add focal point: %v", err)
	}

	raw, err := json.Marshal(ctx.ConfigureInfo()["tau"])
	if err != nil {
		t.Fatalf("marshal applied equation: %v", err)
	}
	text := string(raw)
	for _, want := range []string{`"equation"`, `"Gaussian"`, `"focal_points"`, `"vertex_index":0`, `"triangle_index":1`} {
		if !strings.Contains(text, want) {
			t.Fatalf("applied equation JSON missing %s: %s", want, text)
		}
	}
}
