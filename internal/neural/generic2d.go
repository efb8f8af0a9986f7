package neural

// generic2dOscillator is a two-dimensional oscillator able to express
// the common planar dynamics (limit cycles, excitability, bistability)
// through its polynomial nullclines.
type generic2dOscillator struct{}

var generic2dParams = []ParamDesc{
	{Name: "tau", Default: 1.0, Min: 1.0, Max: 5.0, Description: "temporal scale separation between the two state variables", Spatializable: true},
	{Name: "a", Default: -2.0, Min: -5.0, Max: 5.0, Description: "constant term of the slow nullcline", Spatializable: true},
	{Name: "b", Default: -10.0, Min: -20.0, Max: 15.0, Description: "linear term of the slow nullcline", Spatializable: true},
	{Name: "c", Default: 0.0, Min: -10.0, Max: 10.0, Description: "quadratic term of the slow nullcline", Spatializable: true},
	{Name: "d", Default: 0.02, Min: 0.0001, Max: 1.0, Description: "global temporal rescaling", Spatializable: true},
	{Name: "e", Default: 3.0, Min: -5.0, Max: 5.0, Description: "quadratic term of the fast nullcline", Spatializable: true},
	{Name: "f", Default: 1.0, Min: -5.0, Max: 5.0, Description: "cubic term of the fast nullcline", Spatializable: true},
	{Name: "g", Default: 0.0, Min: -5.0, Max: 5.0, Description: "linear term of the fast nullcline", Spatializable: true},
	{Name: "alpha", Default: 1.0, Min: -5.0, Max: 5.0, Description: "feedback strength of the slow variable on the fast one", Spatializable: true},
	{Name: "beta", Default: 1.0, Min: -5.0, Max: 5.0, Description: "self-feedback strength of the slow variable", Spatializable: true},
	{Name: "gamma", Default: 1.0, Min: -1.0, Max: 1.0, Description: "direction and strength of the input drive", Spatializable: true},
	{Name: "I", Default: 0.0, Min: -5.0, Max: 5.0, Description: "baseline external input", Spatializable: true},
}

func (generic2dOscillator) Name() string {
	return "Generic2dOscillator"
}

func (generic2dOscillator) StateVariables() []string {
	return []string{"V", "W"}
}

func (generic2dOscillator) Parameters() []ParamDesc {
	return generic2dParams
}

// DefaultState is the mid-range resting point of the two variables.
func (generic2dOscillator) DefaultState() []float64 {
	return []float64{1.0, 0.0}
}

func (generic2dOscillator) Derive(state []float64, p Params, coupling float64) []float64 {
	v, w := state[0], state[1]
	dv := p["d"] * p["tau"] * (p["alpha"]*w - p["f"]*v*v*v + p["e"]*v*v + p["g"]*v + p["gamma"]*p["I"] + p["gamma"]*coupling)
	dw := p["d"] * (p["a"] + p["b"]*v + p["c"]*v*v - p["beta"]*w) / p["tau"]
	return []float64{dv, dw}
}
