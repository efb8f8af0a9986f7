// Package neural is the catalog of neural mass models a simulation can
// be configured with. Each model describes its parameters for the web
// forms and supplies the state derivative the runner integrates.
package neural

import (
	"fmt"
	"strconv"
	"strings"
)

// ParamDesc describes one model parameter for form building and value
// resolution.
type ParamDesc struct {
	Name          string
	Default       float64
	Min           float64
	Max           float64
	Description   string
	Spatializable bool
}

// Params holds resolved parameter values keyed by name.
type Params map[string]float64

// Model is one neural mass model. Implementations are stateless; all
// run-specific values arrive through Params.
type Model interface {
	Name() string
	StateVariables() []string
	Parameters() []ParamDesc
	DefaultState() []float64
	Derive(state []float64, p Params, coupling float64) []float64
}

// DefaultName is the model preselected in new simulator configurations.
const DefaultName = "Generic2dOscillator"

var modelOrder = []string{"Generic2dOscillator", "WilsonCowan", "Epileptor2D"}

var models = map[string]Model{
	"Generic2dOscillator": generic2dOscillator{},
	"WilsonCowan":         wilsonCowan{},
	"Epileptor2D":         epileptor2D{},
}

// Names returns the catalog model names in presentation order.
func Names() []string {
	out := make([]string, len(modelOrder))
	copy(out, modelOrder)
	return out
}

// Lookup returns the named model.
func Lookup(name string) (Model, bool) {
	m, ok := models[name]
	return m, ok
}

// Defaults returns the default parameter values of a model.
func Defaults(m Model) Params {
	out := make(Params, len(m.Parameters()))
	for _, desc := range m.Parameters() {
		out[desc.Name] = desc.Default
	}
	return out
}

// SpatializableParameters returns the parameters that may vary across
// the cortical surface, in declaration order.
func SpatializableParameters(m Model) []ParamDesc {
	out := make([]ParamDesc, 0, len(m.Parameters()))
	for _, desc := range m.Parameters() {
		if desc.Spatializable {
			out = append(out, desc)
		}
	}
	return out
}

// ParseValue reads a stored parameter value. Values arrive either as a
// plain number or wrapped in a single-element list literal such as
// "[1.0]", the format the browser forms submit.
func ParseValue(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.TrimSpace(s[1 : len(s)-1])
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	if s == "" {
		return 0, fmt.Errorf("empty parameter value %q", raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter value %q: %w", raw, err)
	}
	return v, nil
}

// ResolveParameters builds the parameter set for a run. Values come
// from lookup keyed by bare parameter name, fall back to the model
// defaults, and are clamped into the declared range.
func ResolveParameters(m Model, lookup func(name string) (string, bool)) (Params, error) {
	params := Defaults(m)
	for _, desc := range m.Parameters() {
		raw, ok := lookup(desc.Name)
		if !ok {
			continue
		}
		v, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("model %s parameter %s: %w", m.Name(), desc.Name, err)
		}
		if v < desc.Min {
			v = desc.Min
		}
		if v > desc.Max {
			v = desc.Max
		}
		params[desc.Name] = v
	}
	return params, nil
}
