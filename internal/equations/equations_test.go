package equations

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNewRejectsUnknownName(t *testing.T) {
	if _, err := New("Quartic"); err == nil {
		t.Fatalf("expected unknown equation to fail")
	}
}

func TestNamesMatchCatalogOrder(t *testing.T) {
	names := Names()
	if len(names) != 5 {
		t.Fatalf("expected 5 equations, got %d", len(names))
	}
	if names[0] != "Linear" || names[1] != DefaultName {
		t.Fatalf("unexpected catalog order %v", names)
	}
	for _, name := range names {
		if _, err := New(name); err != nil {
			t.Fatalf("catalog name %q not constructible: %v", name, err)
		}
	}
}

func TestGaussianPeaksAtMidpoint(t *testing.T) {
	eq, err := New("Gaussian")
	if err != nil {
		t.Fatalf("new gaussian: %v", err)
	}
	if err := eq.SetParam("amp", 2); err != nil {
		t.Fatalf("set amp: %v", err)
	}
	if err := eq.SetParam("midpoint", 3); err != nil {
		t.Fatalf("set midpoint: %v", err)
	}
	if err := eq.SetParam("offset", 0.5); err != nil {
		t.Fatalf("set offset: %v", err)
	}
	if got := eq.Evaluate(3); math.Abs(got-2.5) > 1e-12 {
		t.Fatalf("expected peak 2.5 at midpoint, got %g", got)
	}
	if far := eq.Evaluate(100); math.Abs(far-0.5) > 1e-6 {
		t.Fatalf("expected tail to approach offset, got %g", far)
	}
}

func TestLinearEvaluatesSlopeAndIntercept(t *testing.T) {
	eq, err := New("Linear")
	if err != nil {
		t.Fatalf("new linear: %v", err)
	}
	if err := eq.SetParam("a", 2); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := eq.SetParam("b", -1); err != nil {
		t.Fatalf("set b: %v", err)
	}
	if got := eq.Evaluate(4); got != 7 {
		t.Fatalf("expected 7, got %g", got)
	}
}

func TestGeneralizedSigmoidSpansLowToHigh(t *testing.T) {
	eq, err := New("GeneralizedSigmoid")
	if err != nil {
		t.Fatalf("new generalized sigmoid: %v", err)
	}
	if err := eq.SetParam("low", -1); err != nil {
		t.Fatalf("set low: %v", err)
	}
	if err := eq.SetParam("high", 3); err != nil {
		t.Fatalf("set high: %v", err)
	}
	if got := eq.Evaluate(-100); math.Abs(got-(-1)) > 1e-6 {
		t.Fatalf("expected left tail near low, got %g", got)
	}
	if got := eq.Evaluate(100); math.Abs(got-3) > 1e-6 {
		t.Fatalf("expected right tail near high, got %g", got)
	}
	mid, _ := eq.Param("midpoint")
	if got := eq.Evaluate(mid); math.Abs(got-1) > 1e-12 {
		t.Fatalf("expected midpoint value 1, got %g", got)
	}
}

func TestSetParamRejectsBadInput(t *testing.T) {
	eq, err := New("Sigmoid")
	if err != nil {
		t.Fatalf("new sigmoid: %v", err)
	}
	if err := eq.SetParam("slope", 1); err == nil {
		t.Fatalf("expected unknown parameter to fail")
	}
	if err := eq.SetParam("amp", math.NaN()); err == nil {
		t.Fatalf("expected NaN value to fail")
	}
	if err := eq.SetParam("amp", math.Inf(1)); err == nil {
		t.Fatalf("expected infinite value to fail")
	}
}

func TestSampleCoversRangeInclusive(t *testing.T) {
	eq, err := New("Linear")
	if err != nil {
		t.Fatalf("new linear: %v", err)
	}
	xs, ys, _ := sampleSanitized(eq, 0, 10, 5)
	if len(xs) != 5 || len(ys) != 5 {
		t.Fatalf("expected 5 points, got %d/%d", len(xs), len(ys))
	}
	if xs[0] != 0 || xs[4] != 10 {
		t.Fatalf("expected endpoints 0 and 10, got %g and %g", xs[0], xs[4])
	}
	if ys[2] != 5 {
		t.Fatalf("expected identity at midpoint, got %g", ys[2])
	}
}

func sampleSanitized(eq *Equation, lo, hi float64, n int) ([]float64, []float64, bool) {
	xs, ys := eq.Sample(lo, hi, n)
	return Sanitize(xs, ys)
}

func TestSanitizeDropsNonFinitePoints(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1, math.NaN(), math.Inf(1), 4}
	outX, outY, dropped := Sanitize(xs, ys)
	if !dropped {
		t.Fatalf("expected dropped flag")
	}
	if len(outX) != 2 || len(outY) != 2 {
		t.Fatalf("expected 2 surviving points, got %d", len(outX))
	}
	if outX[1] != 3 || outY[1] != 4 {
		t.Fatalf("unexpected surviving points %v %v", outX, outY)
	}
}

func TestEquationJSONRoundTrip(t *testing.T) {
	eq, err := New("Gaussian")
	if err != nil {
		t.Fatalf("new gaussian: %v", err)
	}
	if err := eq.SetParam("sigma", 4); err != nil {
		t.Fatalf("set sigma: %v", err)
	}
	encoded, err := json.Marshal(eq)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Equation
	if err := json.Unmarshal(encoded, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Name() != "Gaussian" {
		t.Fatalf("expected Gaussian, got %s", restored.Name())
	}
	if v, _ := restored.Param("sigma"); v != 4 {
		t.Fatalf("expected sigma 4, got %g", v)
	}
	if restored.Evaluate(0) != eq.Evaluate(0) {
		t.Fatalf("restored equation evaluates differently")
	}
	if err := json.Unmarshal([]byte(`{"name":"Gaussian","parameters":{"slope":1}}`), &restored); err == nil {
		t.Fatalf("expected unknown parameter in payload to fail")
	}
}
