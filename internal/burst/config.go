// Package burst holds simulation-launch configurations, the status hub
// that fans run updates out to browsers, and the runner that executes
// configured simulations.
package burst

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/orderedmap"

	"github.com/nsiona/tvb-framework/internal/gid"
	"github.com/nsiona/tvb-framework/internal/neural"
)

// Status is the lifecycle state of a configuration.
type Status string

const (
	StatusNew      Status = "new"
	StatusStarted  Status = "started"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusError    Status = "error"
)

// Well-known simulator parameter names.
const (
	ParamModel            = "model"
	ParamIntegrator       = "integrator"
	ParamMonitors         = "monitors"
	ParamCoupling         = "coupling"
	ParamSimulationLength = "simulation_length"
	ParamConnectivity     = "connectivity"
	ParamSurface          = "surface"
)

// ModelParamKey names the entry holding one model parameter value.
func ModelParamKey(model, param string) string {
	return "model_parameters_option_" + model + "_" + param
}

// SpatialParamKey names the entry holding the spatialization descriptor
// of one model parameter.
func SpatialParamKey(param string) string {
	return "model_parameters_surface_" + param
}

// IntegratorParamKey names the entry holding one integrator parameter.
func IntegratorParamKey(integrator, param string) string {
	return "integrator_parameters_option_" + integrator + "_" + param
}

// MonitorParamKey names the entry holding one monitor parameter.
func MonitorParamKey(monitor, param string) string {
	return "monitors_parameters_option_" + monitor + "_" + param
}

// CouplingParamKey names the entry holding one coupling parameter.
func CouplingParamKey(coupling, param string) string {
	return "coupling_parameters_option_" + coupling + "_" + param
}

// ParamValue wraps a submitted parameter value. The browser forms post
// every value as a record so the session layer can round-trip them
// without interpretation.
type ParamValue struct {
	Value string `json:"value"`
}

// SimulatorConfiguration is the ordered parameter mapping of one
// simulation. Order is the form order the browser rendered, so it must
// survive JSON round-trips.
type SimulatorConfiguration struct {
	params *orderedmap.OrderedMap
}

// NewSimulatorConfiguration returns an empty configuration.
func NewSimulatorConfiguration() *SimulatorConfiguration {
	return &SimulatorConfiguration{params: orderedmap.New()}
}

func (c *SimulatorConfiguration) ensure() {
	if c.params == nil {
		c.params = orderedmap.New()
	}
}

// Set stores one parameter value, appending it to the order when new.
func (c *SimulatorConfiguration) Set(name, value string) {
	c.ensure()
	c.params.Set(name, ParamValue{Value: value})
}

// Value returns one parameter value.
func (c *SimulatorConfiguration) Value(name string) (string, bool) {
	c.ensure()
	raw, ok := c.params.Get(name)
	if !ok {
		return "", false
	}
	pv, ok := raw.(ParamValue)
	if !ok {
		return "", false
	}
	return pv.Value, true
}

// Delete removes one parameter.
func (c *SimulatorConfiguration) Delete(name string) {
	c.ensure()
	c.params.Delete(name)
}

// Names returns the parameter names in form order.
func (c *SimulatorConfiguration) Names() []string {
	c.ensure()
	keys := c.params.Keys()
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Len returns the number of parameters.
func (c *SimulatorConfiguration) Len() int {
	c.ensure()
	return len(c.params.Keys())
}

// Clone returns an independent copy preserving order.
func (c *SimulatorConfiguration) Clone() *SimulatorConfiguration {
	clone := NewSimulatorConfiguration()
	for _, name := range c.Names() {
		if v, ok := c.Value(name); ok {
			clone.Set(name, v)
		}
	}
	return clone
}

// MarshalJSON encodes the parameters as an object whose key order is
// the form order.
func (c *SimulatorConfiguration) MarshalJSON() ([]byte, error) {
	c.ensure()
	return json.Marshal(c.params)
}

// UnmarshalJSON decodes the object while preserving its key order.
func (c *SimulatorConfiguration) UnmarshalJSON(data []byte) error {
	c.params = orderedmap.New()
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("simulator configuration: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("simulator configuration: non-string key %v", keyTok)
		}
		var pv ParamValue
		if err := dec.Decode(&pv); err != nil {
			return fmt.Errorf("simulator configuration: parameter %s: %w", name, err)
		}
		c.params.Set(name, pv)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// RegionSummary is the per-region outcome of a finished run: the range
// of the first state variable over the simulated window.
type RegionSummary struct {
	Region string  `json:"region"`
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
}

// Configuration is one simulation launch: identity, lifecycle state and
// the full simulator parameter set.
type Configuration struct {
	ID        string                  `json:"id"`
	Project   string                  `json:"project"`
	Name      string                  `json:"name"`
	Status    Status                  `json:"status"`
	Progress  float64                 `json:"progress"`
	Created   time.Time               `json:"created"`
	Started   time.Time               `json:"started"`
	Finished  time.Time               `json:"finished"`
	Error     string                  `json:"error,omitempty"`
	Simulator *SimulatorConfiguration `json:"simulator"`
	Summary   []RegionSummary         `json:"summary,omitempty"`
}

// NewConfiguration returns a default-seeded configuration for the
// project.
func NewConfiguration(project string) *Configuration {
	return &Configuration{
		ID:        gid.New(),
		Project:   project,
		Name:      "Simulation",
		Status:    StatusNew,
		Created:   time.Now().UTC(),
		Simulator: DefaultSimulatorConfiguration(),
	}
}

// Parameter returns one simulator parameter value.
func (c *Configuration) Parameter(name string) (string, bool) {
	if c.Simulator == nil {
		return "", false
	}
	return c.Simulator.Value(name)
}

// SetParameter stores one simulator parameter value.
func (c *Configuration) SetParameter(name, value string) {
	if c.Simulator == nil {
		c.Simulator = NewSimulatorConfiguration()
	}
	c.Simulator.Set(name, value)
}

// ParameterNames returns the simulator parameter names in form order.
func (c *Configuration) ParameterNames() []string {
	if c.Simulator == nil {
		return nil
	}
	return c.Simulator.Names()
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	clone := *c
	if c.Simulator != nil {
		clone.Simulator = c.Simulator.Clone()
	}
	if c.Summary != nil {
		clone.Summary = make([]RegionSummary, len(c.Summary))
		copy(clone.Summary, c.Summary)
	}
	return &clone
}

// Model returns the configured neural model.
func (c *Configuration) Model() (neural.Model, error) {
	name, ok := c.Parameter(ParamModel)
	if !ok {
		return nil, fmt.Errorf("configuration %s: no model selected", c.ID)
	}
	m, ok := neural.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("configuration %s: unknown model %q", c.ID, name)
	}
	return m, nil
}

// ModelParams resolves the configured model's parameter values.
func (c *Configuration) ModelParams(m neural.Model) (neural.Params, error) {
	return neural.ResolveParameters(m, func(name string) (string, bool) {
		return c.Parameter(ModelParamKey(m.Name(), name))
	})
}

// Validate checks that the configuration can be launched.
func (c *Configuration) Validate() error {
	if !gid.IsValid(c.ID) {
		return fmt.Errorf("configuration has malformed id %q", c.ID)
	}
	if c.Simulator == nil || c.Simulator.Len() == 0 {
		return fmt.Errorf("configuration %s: empty simulator configuration", c.ID)
	}
	m, err := c.Model()
	if err != nil {
		return err
	}
	if _, err := c.ModelParams(m); err != nil {
		return err
	}
	integrator, ok := c.Parameter(ParamIntegrator)
	if !ok {
		return fmt.Errorf("configuration %s: no integrator selected", c.ID)
	}
	if _, ok := neural.LookupIntegrator(integrator); !ok {
		return fmt.Errorf("configuration %s: unknown integrator %q", c.ID, integrator)
	}
	if err := c.checkPositive(ParamSimulationLength); err != nil {
		return err
	}
	if err := c.checkPositive(IntegratorParamKey(integrator, "dt")); err != nil {
		return err
	}
	connectivity, ok := c.Parameter(ParamConnectivity)
	if !ok || !gid.IsValid(connectivity) {
		return fmt.Errorf("configuration %s: missing or malformed connectivity reference", c.ID)
	}
	if surface, ok := c.Parameter(ParamSurface); ok && surface != "" && !gid.IsValid(surface) {
		return fmt.Errorf("configuration %s: malformed surface reference %q", c.ID, surface)
	}
	return nil
}

func (c *Configuration) checkPositive(name string) error {
	raw, ok := c.Parameter(name)
	if !ok {
		return fmt.Errorf("configuration %s: missing %s", c.ID, name)
	}
	v, err := neural.ParseValue(raw)
	if err != nil {
		return fmt.Errorf("configuration %s: %s: %w", c.ID, name, err)
	}
	if v <= 0 {
		return fmt.Errorf("configuration %s: %s must be positive, got %g", c.ID, name, v)
	}
	return nil
}

// formatValue renders a float the way the browser forms do, always with
// a decimal point.
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// formatListValue wraps a float in the single-element list literal the
// forms submit for model parameters.
func formatListValue(v float64) string {
	return "[" + formatValue(v) + "]"
}
