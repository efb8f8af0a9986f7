// Package equations holds the scalar equations used to spatialize
// model parameters over a cortical surface. Each equation maps a
// distance to a parameter offset and carries a flat parameter set the
// web forms can edit field by field.
package equations

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Equation is a named scalar function with editable parameters.
// Instances are cheap and mutable; the registry hands out a fresh copy
// with default parameters on every New call.
type Equation struct {
	name       string
	paramNames []string
	params     map[string]float64
	eval       func(params map[string]float64, x float64) float64
}

type definition struct {
	paramNames []string
	defaults   map[string]float64
	eval       func(params map[string]float64, x float64) float64
}

// DefaultName is the equation preselected when a parameter is first
// spatialized.
const DefaultName = "Gaussian"

var catalogOrder = []string{"Linear", "Gaussian", "DoubleGaussian", "Sigmoid", "GeneralizedSigmoid"}

var catalog = map[string]definition{
	"Linear": {
		paramNames: []string{"a", "b"},
		defaults:   map[string]float64{"a": 1, "b": 0},
		eval: func(p map[string]float64, x float64) float64 {
			return p["a"]*x + p["b"]
		},
	},
	"Gaussian": {
		paramNames: []string{"amp", "sigma", "midpoint", "offset"},
		defaults:   map[string]float64{"amp": 1, "sigma": 1, "midpoint": 0, "offset": 0},
		eval: func(p map[string]float64, x float64) float64 {
			d := x - p["midpoint"]
			return p["amp"]*math.Exp(-d*d/(2*p["sigma"]*p["sigma"])) + p["offset"]
		},
	},
	"DoubleGaussian": {
		paramNames: []string{"amp_1", "sigma_1", "midpoint_1", "amp_2", "sigma_2", "midpoint_2"},
		defaults: map[string]float64{
			"amp_1": 0.5, "sigma_1": 20, "midpoint_1": 0,
			"amp_2": 1, "sigma_2": 10, "midpoint_2": 0,
		},
		eval: func(p map[string]float64, x float64) float64 {
			d1 := x - p["midpoint_1"]
			d2 := x - p["midpoint_2"]
			first := p["amp_1"] * math.Exp(-d1*d1/(2*p["sigma_1"]*p["sigma_1"]))
			second := p["amp_2"] * math.Exp(-d2*d2/(2*p["sigma_2"]*p["sigma_2"]))
			return first - second
		},
	},
	"Sigmoid": {
		paramNames: []string{"amp", "radius", "sigma"},
		defaults:   map[string]float64{"amp": 1, "radius": 5, "sigma": 1},
		eval: func(p map[string]float64, x float64) float64 {
			return p["amp"] / (1 + math.Exp(-(p["radius"]-math.Abs(x))/p["sigma"]))
		},
	},
	"GeneralizedSigmoid": {
		paramNames: []string{"low", "high", "midpoint", "sigma"},
		defaults:   map[string]float64{"low": 0, "high": 1, "midpoint": 1, "sigma": 0.3},
		eval: func(p map[string]float64, x float64) float64 {
			return p["low"] + (p["high"]-p["low"])/(1+math.Exp(-(x-p["midpoint"])/p["sigma"]))
		},
	},
}

// Names returns the available equation names in presentation order.
func Names() []string {
	out := make([]string, len(catalogOrder))
	copy(out, catalogOrder)
	return out
}

// New returns a fresh equation with default parameters.
func New(name string) (*Equation, error) {
	def, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown equation %q", name)
	}
	params := make(map[string]float64, len(def.defaults))
	for k, v := range def.defaults {
		params[k] = v
	}
	return &Equation{
		name:       name,
		paramNames: def.paramNames,
		params:     params,
		eval:       def.eval,
	}, nil
}

// Name returns the equation name.
func (e *Equation) Name() string {
	return e.name
}

// ParamNames returns the parameter names in form order.
func (e *Equation) ParamNames() []string {
	out := make([]string, len(e.paramNames))
	copy(out, e.paramNames)
	return out
}

// Param returns one parameter value.
func (e *Equation) Param(name string) (float64, bool) {
	v, ok := e.params[name]
	return v, ok
}

// SetParam updates one parameter. Unknown names and non-finite values
// are rejected so form input cannot corrupt the equation.
func (e *Equation) SetParam(name string, value float64) error {
	if _, ok := e.params[name]; !ok {
		return fmt.Errorf("equation %s has no parameter %q", e.name, name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("equation %s: non-finite value for %q", e.name, name)
	}
	e.params[name] = value
	return nil
}

// Params returns a copy of the parameter map.
func (e *Equation) Params() map[string]float64 {
	out := make(map[string]float64, len(e.params))
	for k, v := range e.params {
		out[k] = v
	}
	return out
}

// Evaluate computes the equation at x.
func (e *Equation) Evaluate(x float64) float64 {
	return e.eval(e.params, x)
}

// Clone returns an independent copy.
func (e *Equation) Clone() *Equation {
	clone := &Equation{
		name:       e.name,
		paramNames: e.paramNames,
		params:     make(map[string]float64, len(e.params)),
		eval:       e.eval,
	}
	for k, v := range e.params {
		clone.params[k] = v
	}
	return clone
}

// Sample evaluates the equation at n evenly spaced points across
// [lo, hi], endpoints included.
func (e *Equation) Sample(lo, hi float64, n int) ([]float64, []float64) {
	if n < 2 {
		n = 2
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*step
		if i == n-1 {
			x = hi
		}
		xs[i] = x
		ys[i] = e.Evaluate(x)
	}
	return xs, ys
}

// Sanitize drops the points whose value is NaN or infinite and reports
// whether anything was removed. Chart payloads must stay finite or the
// client renderer rejects the whole series.
func Sanitize(xs, ys []float64) ([]float64, []float64, bool) {
	outX := make([]float64, 0, len(xs))
	outY := make([]float64, 0, len(ys))
	dropped := false
	for i := range ys {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			dropped = true
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	return outX, outY, dropped
}

type equationJSON struct {
	Name       string             `json:"name"`
	Parameters map[string]float64 `json:"parameters"`
}

// MarshalJSON encodes the equation as its name plus parameter map.
func (e *Equation) MarshalJSON() ([]byte, error) {
	return json.Marshal(equationJSON{Name: e.name, Parameters: e.Params()})
}

// UnmarshalJSON restores an equation from its name plus parameter map.
// Unknown parameter names are rejected.
func (e *Equation) UnmarshalJSON(data []byte) error {
	var raw equationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	restored, err := New(raw.Name)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(raw.Parameters))
	for name := range raw.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := restored.SetParam(name, raw.Parameters[name]); err != nil {
			return err
		}
	}
	*e = *restored
	return nil
}
