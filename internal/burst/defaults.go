package burst

import "github.com/nsiona/tvb-framework/internal/neural"

// Default monitor settings for new configurations.
const (
	DefaultMonitor       = "TemporalAverage"
	DefaultMonitorPeriod = 0.9765625
)

// Default coupling settings for new configurations.
const (
	DefaultCoupling         = "Linear"
	DefaultCouplingA        = 0.00390625
	DefaultCouplingB        = 0.0
	DefaultSimulationLength = 32.0
)

// DefaultSimulatorConfiguration seeds the parameter set a fresh
// configuration starts from: the default model with its catalog
// defaults, integrator, monitor and coupling. The insertion order here
// is the order the browser form renders.
func DefaultSimulatorConfiguration() *SimulatorConfiguration {
	cfg := NewSimulatorConfiguration()

	cfg.Set(ParamModel, neural.DefaultName)
	model, _ := neural.Lookup(neural.DefaultName)
	for _, desc := range model.Parameters() {
		cfg.Set(ModelParamKey(model.Name(), desc.Name), formatListValue(desc.Default))
	}

	cfg.Set(ParamIntegrator, neural.DefaultIntegratorName)
	cfg.Set(IntegratorParamKey(neural.DefaultIntegratorName, "dt"), formatValue(neural.DefaultStep))

	cfg.Set(ParamMonitors, DefaultMonitor)
	cfg.Set(MonitorParamKey(DefaultMonitor, "period"), formatValue(DefaultMonitorPeriod))

	cfg.Set(ParamCoupling, DefaultCoupling)
	cfg.Set(CouplingParamKey(DefaultCoupling, "a"), formatListValue(DefaultCouplingA))
	cfg.Set(CouplingParamKey(DefaultCoupling, "b"), formatListValue(DefaultCouplingB))

	cfg.Set(ParamSimulationLength, formatValue(DefaultSimulationLength))
	return cfg
}
