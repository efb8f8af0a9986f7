package neural

// epileptor2D is the two-dimensional reduction of the Epileptor: a fast
// variable for the seizure oscillation and a slow permittivity variable
// that drives the system across the seizure threshold.
type epileptor2D struct{}

var epileptor2DParams = []ParamDesc{
	{Name: "x0", Default: -1.6, Min: -3.0, Max: -1.0, Description: "epileptogenicity of the region", Spatializable: true},
	{Name: "Iext", Default: 3.1, Min: 1.5, Max: 5.0, Description: "external input to the fast population", Spatializable: true},
	{Name: "r", Default: 0.00035, Min: 0.00001, Max: 0.001, Description: "timescale of the permittivity variable", Spatializable: false},
	{Name: "tt", Default: 1.0, Min: 0.001, Max: 10.0, Description: "global timescale of the whole system", Spatializable: true},
}

func (epileptor2D) Name() string {
	return "Epileptor2D"
}

func (epileptor2D) StateVariables() []string {
	return []string{"x1", "z"}
}

func (epileptor2D) Parameters() []ParamDesc {
	return epileptor2DParams
}

func (epileptor2D) DefaultState() []float64 {
	return []float64{-0.5, 3.5}
}

func (epileptor2D) Derive(state []float64, p Params, coupling float64) []float64 {
	x1, z := state[0], state[1]
	dx1 := p["tt"] * (1 - x1*x1*x1 - 2*x1*x1 - z + p["Iext"] + coupling)
	dz := p["tt"] * p["r"] * (4*(x1-p["x0"]) - z)
	return []float64{dx1, dz}
}
