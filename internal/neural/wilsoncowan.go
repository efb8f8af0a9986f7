package neural

import "math"

// wilsonCowan models the mean activity of coupled excitatory and
// inhibitory populations with sigmoidal response functions.
type wilsonCowan struct{}

var wilsonCowanParams = []ParamDesc{
	{Name: "c_ee", Default: 12.0, Min: 11.0, Max: 16.0, Description: "excitatory to excitatory coupling", Spatializable: true},
	{Name: "c_ei", Default: 4.0, Min: 2.0, Max: 15.0, Description: "inhibitory to excitatory coupling", Spatializable: true},
	{Name: "c_ie", Default: 13.0, Min: 2.0, Max: 22.0, Description: "excitatory to inhibitory coupling", Spatializable: true},
	{Name: "c_ii", Default: 11.0, Min: 2.0, Max: 15.0, Description: "inhibitory to inhibitory coupling", Spatializable: true},
	{Name: "tau_e", Default: 10.0, Min: 1.0, Max: 150.0, Description: "excitatory population time constant", Spatializable: true},
	{Name: "tau_i", Default: 10.0, Min: 1.0, Max: 150.0, Description: "inhibitory population time constant", Spatializable: true},
	{Name: "a_e", Default: 1.2, Min: 0.1, Max: 1.4, Description: "slope of the excitatory response", Spatializable: true},
	{Name: "b_e", Default: 2.8, Min: 1.4, Max: 6.0, Description: "position of the excitatory response", Spatializable: true},
	{Name: "theta_e", Default: 0.0, Min: 0.0, Max: 60.0, Description: "excitatory firing threshold", Spatializable: true},
	{Name: "a_i", Default: 1.0, Min: 0.1, Max: 2.0, Description: "slope of the inhibitory response", Spatializable: true},
	{Name: "b_i", Default: 4.0, Min: 2.0, Max: 6.0, Description: "position of the inhibitory response", Spatializable: true},
	{Name: "theta_i", Default: 0.0, Min: 0.0, Max: 60.0, Description: "inhibitory firing threshold", Spatializable: true},
	{Name: "r_e", Default: 1.0, Min: 0.5, Max: 2.0, Description: "excitatory refractory scaling", Spatializable: false},
	{Name: "r_i", Default: 1.0, Min: 0.5, Max: 2.0, Description: "inhibitory refractory scaling", Spatializable: false},
	{Name: "k_e", Default: 1.0, Min: 0.5, Max: 2.0, Description: "maximum excitatory response", Spatializable: false},
	{Name: "k_i", Default: 1.0, Min: 0.5, Max: 2.0, Description: "maximum inhibitory response", Spatializable: false},
	{Name: "P", Default: 0.0, Min: 0.0, Max: 20.0, Description: "external input to the excitatory population", Spatializable: true},
	{Name: "Q", Default: 0.0, Min: 0.0, Max: 20.0, Description: "external input to the inhibitory population", Spatializable: true},
	{Name: "alpha_e", Default: 1.0, Min: 0.4, Max: 1.0, Description: "balance of the excitatory drive", Spatializable: true},
	{Name: "alpha_i", Default: 1.0, Min: 0.4, Max: 1.0, Description: "balance of the inhibitory drive", Spatializable: true},
}

func (wilsonCowan) Name() string {
	return "WilsonCowan"
}

func (wilsonCowan) StateVariables() []string {
	return []string{"E", "I"}
}

func (wilsonCowan) Parameters() []ParamDesc {
	return wilsonCowanParams
}

func (wilsonCowan) DefaultState() []float64 {
	return []float64{0.5, 0.5}
}

func sigm(x, a, b float64) float64 {
	return 1 / (1 + math.Exp(-a*(x-b)))
}

func (wilsonCowan) Derive(state []float64, p Params, coupling float64) []float64 {
	e, i := state[0], state[1]
	xe := p["alpha_e"] * (p["c_ee"]*e - p["c_ei"]*i + p["P"] - p["theta_e"] + coupling)
	xi := p["alpha_i"] * (p["c_ie"]*e - p["c_ii"]*i + p["Q"] - p["theta_i"])
	de := (-e + (p["k_e"]-p["r_e"]*e)*sigm(xe, p["a_e"], p["b_e"])) / p["tau_e"]
	di := (-i + (p["k_i"]-p["r_i"]*i)*sigm(xi, p["a_i"], p["b_i"])) / p["tau_i"]
	return []float64{de, di}
}
