package neural

import (
	"math"
	"testing"
)

func TestCatalogNamesResolve(t *testing.T) {
	names := Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 models, got %d", len(names))
	}
	if names[0] != DefaultName {
		t.Fatalf("expected %s first, got %s", DefaultName, names[0])
	}
	for _, name := range names {
		m, ok := Lookup(name)
		if !ok {
			t.Fatalf("model %s not in catalog", name)
		}
		if m.Name() != name {
			t.Fatalf("model %s reports name %s", name, m.Name())
		}
		if len(m.StateVariables()) != len(m.DefaultState()) {
			t.Fatalf("model %s: %d state variables but %d defaults", name, len(m.StateVariables()), len(m.DefaultState()))
		}
	}
	if _, ok := Lookup("HodgkinHuxley"); ok {
		t.Fatalf("expected unknown model to miss")
	}
}

func TestDefaultsCoverEveryParameter(t *testing.T) {
	m, _ := Lookup("Generic2dOscillator")
	defaults := Defaults(m)
	if len(defaults) != len(m.Parameters()) {
		t.Fatalf("expected %d defaults, got %d", len(m.Parameters()), len(defaults))
	}
	if defaults["tau"] != 1.0 || defaults["b"] != -10.0 {
		t.Fatalf("unexpected defaults %v", defaults)
	}
}

func TestSpatializableParametersFilter(t *testing.T) {
	g2d, _ := Lookup("Generic2dOscillator")
	if got := len(SpatializableParameters(g2d)); got != len(g2d.Parameters()) {
		t.Fatalf("expected every oscillator parameter spatializable, got %d of %d", got, len(g2d.Parameters()))
	}
	wc, _ := Lookup("WilsonCowan")
	spatial := SpatializableParameters(wc)
	if len(spatial) != len(wc.Parameters())-4 {
		t.Fatalf("expected 4 non-spatializable parameters, got %d of %d", len(spatial), len(wc.Parameters()))
	}
	for _, desc := range spatial {
		if desc.Name == "r_e" || desc.Name == "k_i" {
			t.Fatalf("parameter %s should not be spatializable", desc.Name)
		}
	}
	ep, _ := Lookup("Epileptor2D")
	spatial = SpatializableParameters(ep)
	if len(spatial) != 3 {
		t.Fatalf("expected 3 spatializable parameters, got %d", len(spatial))
	}
	for _, desc := range spatial {
		if desc.Name == "r" {
			t.Fatalf("permittivity timescale should not be spatializable")
		}
	}
}

func TestParseValueFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"1.5", 1.5},
		{"[1.0]", 1.0},
		{" [ -2.25 ] ", -2.25},
		{"[0.5, 0.75]", 0.5},
		{"3", 3},
	}
	for _, tc := range cases {
		got, err := ParseValue(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: expected %g, got %g", tc.raw, tc.want, got)
		}
	}
	for _, raw := range []string{"", "[]", "[abc]", "five"} {
		if _, err := ParseValue(raw); err == nil {
			t.Fatalf("expected parse of %q to fail", raw)
		}
	}
}

func TestResolveParametersClampsAndFallsBack(t *testing.T) {
	m, _ := Lookup("Generic2dOscillator")
	values := map[string]string{
		"tau": "[42.0]",
		"a":   "[1.5]",
	}
	params, err := ResolveParameters(m, func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if params["tau"] != 5.0 {
		t.Fatalf("expected tau clamped to 5, got %g", params["tau"])
	}
	if params["a"] != 1.5 {
		t.Fatalf("expected a 1.5, got %g", params["a"])
	}
	if params["b"] != -10.0 {
		t.Fatalf("expected b to keep its default, got %g", params["b"])
	}

	if _, err := ResolveParameters(m, func(name string) (string, bool) {
		return "[not-a-number]", true
	}); err == nil {
		t.Fatalf("expected malformed value to fail resolution")
	}
}

func TestGeneric2dOscillatorDerivative(t *testing.T) {
	m, _ := Lookup("Generic2dOscillator")
	deriv := m.Derive([]float64{1, 0}, Defaults(m), 0)
	if len(deriv) != 2 {
		t.Fatalf("expected 2 derivatives, got %d", len(deriv))
	}
	if math.Abs(deriv[0]-0.04) > 1e-12 {
		t.Fatalf("expected dV 0.04, got %g", deriv[0])
	}
	if math.Abs(deriv[1]-(-0.24)) > 1e-12 {
		t.Fatalf("expected dW -0.24, got %g", deriv[1])
	}
}

func TestCouplingEntersFastEquation(t *testing.T) {
	for _, name := range Names() {
		m, _ := Lookup(name)
		params := Defaults(m)
		base := m.Derive(m.DefaultState(), params, 0)
		driven := m.Derive(m.DefaultState(), params, 0.5)
		if base[0] == driven[0] {
			t.Fatalf("model %s ignores coupling", name)
		}
	}
}

func TestIntegratorsOnExponentialGrowth(t *testing.T) {
	derive := func(state [][]float64) [][]float64 {
		out := make([][]float64, len(state))
		for i := range state {
			out[i] = []float64{state[i][0]}
		}
		return out
	}
	start := [][]float64{{1}}

	euler, ok := LookupIntegrator("EulerDeterministic")
	if !ok {
		t.Fatalf("euler scheme missing")
	}
	got := euler.Step(start, 0.1, derive)
	if math.Abs(got[0][0]-1.1) > 1e-12 {
		t.Fatalf("expected euler step 1.1, got %g", got[0][0])
	}
	if start[0][0] != 1 {
		t.Fatalf("integration must not mutate the input state")
	}

	rk4, ok := LookupIntegrator("RungeKutta4thOrderDeterministic")
	if !ok {
		t.Fatalf("rk4 scheme missing")
	}
	exact := math.Exp(0.1)
	rkStep := rk4.Step(start, 0.1, derive)
	if math.Abs(rkStep[0][0]-exact) > 1e-6 {
		t.Fatalf("expected rk4 near %g, got %g", exact, rkStep[0][0])
	}
	if math.Abs(rkStep[0][0]-exact) >= math.Abs(got[0][0]-exact) {
		t.Fatalf("expected rk4 to beat euler, rk4 off by %g euler by %g", math.Abs(rkStep[0][0]-exact), math.Abs(got[0][0]-exact))
	}

	if _, ok := LookupIntegrator("Heun"); ok {
		t.Fatalf("expected unknown scheme to miss")
	}
}
