package neural

// NetworkDerive computes per-region state derivatives for a whole
// network state (regions by state variables).
type NetworkDerive func(state [][]float64) [][]float64

// Integrator advances a network state by one time step.
type Integrator interface {
	Name() string
	Step(state [][]float64, dt float64, derive NetworkDerive) [][]float64
}

// DefaultIntegratorName is the scheme preselected in new simulator
// configurations.
const DefaultIntegratorName = "EulerDeterministic"

// DefaultStep is the default integration step in milliseconds.
const DefaultStep = 0.01220703125

var integratorOrder = []string{"EulerDeterministic", "RungeKutta4thOrderDeterministic"}

var integrators = map[string]Integrator{
	"EulerDeterministic":              eulerIntegrator{},
	"RungeKutta4thOrderDeterministic": rk4Integrator{},
}

// IntegratorNames returns the available schemes in presentation order.
func IntegratorNames() []string {
	out := make([]string, len(integratorOrder))
	copy(out, integratorOrder)
	return out
}

// LookupIntegrator returns the named integration scheme.
func LookupIntegrator(name string) (Integrator, bool) {
	in, ok := integrators[name]
	return in, ok
}

type eulerIntegrator struct{}

func (eulerIntegrator) Name() string {
	return "EulerDeterministic"
}

func (eulerIntegrator) Step(state [][]float64, dt float64, derive NetworkDerive) [][]float64 {
	return addScaled(state, derive(state), dt)
}

type rk4Integrator struct{}

func (rk4Integrator) Name() string {
	return "RungeKutta4thOrderDeterministic"
}

func (rk4Integrator) Step(state [][]float64, dt float64, derive NetworkDerive) [][]float64 {
	k1 := derive(state)
	k2 := derive(addScaled(state, k1, dt/2))
	k3 := derive(addScaled(state, k2, dt/2))
	k4 := derive(addScaled(state, k3, dt))
	next := make([][]float64, len(state))
	for i := range state {
		row := make([]float64, len(state[i]))
		for j := range state[i] {
			row[j] = state[i][j] + dt/6*(k1[i][j]+2*k2[i][j]+2*k3[i][j]+k4[i][j])
		}
		next[i] = row
	}
	return next
}

func addScaled(state, deriv [][]float64, factor float64) [][]float64 {
	next := make([][]float64, len(state))
	for i := range state {
		row := make([]float64, len(state[i]))
		for j := range state[i] {
			row[j] = state[i][j] + factor*deriv[i][j]
		}
		next[i] = row
	}
	return next
}
