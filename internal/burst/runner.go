package burst

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nsiona/tvb-framework/internal/datatype"
	"github.com/nsiona/tvb-framework/internal/neural"
	"github.com/nsiona/tvb-framework/internal/telemetry"
	"github.com/nsiona/tvb-framework/logging"
	"github.com/nsiona/tvb-framework/logging/burstlog"
)

// ErrAlreadyRunning reports a launch for a configuration that is still
// executing.
var ErrAlreadyRunning = errors.New("burst: already running")

// progressUpdates is how many progress checkpoints a run reports.
const progressUpdates = 20

// ConfigStore is the persistence surface the runner needs.
type ConfigStore interface {
	SaveBurst(ctx context.Context, cfg *Configuration) error
	Connectivity(ctx context.Context, gid string) (*datatype.Connectivity, error)
}

// Runner executes launched configurations in the background: it
// integrates the configured model over the connectivity, persists
// status transitions and feeds the status hub.
type Runner struct {
	store    ConfigStore
	hub      *StatusHub
	pub      logging.Publisher
	counters *telemetry.Counters
	workers  chan struct{}

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner builds a runner executing at most workers runs at once.
func NewRunner(store ConfigStore, hub *StatusHub, pub logging.Publisher, counters *telemetry.Counters, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Runner{
		store:    store,
		hub:      hub,
		pub:      pub,
		counters: counters,
		workers:  make(chan struct{}, workers),
		running:  make(map[string]context.CancelFunc),
	}
}

// IsRunning reports whether a configuration is currently executing.
func (r *Runner) IsRunning(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[id]
	return ok
}

// Stop cancels one running configuration.
func (r *Runner) Stop(id string) bool {
	r.mu.Lock()
	cancel, ok := r.running[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown cancels every run and waits for the workers to drain.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	for _, cancel := range r.running {
		cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Launch validates the configuration, persists it as started and hands
// it to a background worker. The returned copy reflects the persisted
// started state.
func (r *Runner) Launch(ctx context.Context, cfg *Configuration) (*Configuration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	connGID, _ := cfg.Parameter(ParamConnectivity)
	conn, err := r.store.Connectivity(ctx, connGID)
	if err != nil {
		return nil, fmt.Errorf("burst %s: connectivity %s: %w", cfg.ID, connGID, err)
	}
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, ok := r.running[cfg.ID]; ok {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(context.Background())
	r.running[cfg.ID] = cancel
	r.mu.Unlock()

	started := cfg.Clone()
	started.Status = StatusStarted
	started.Started = time.Now().UTC()
	started.Progress = 0
	started.Error = ""
	started.Summary = nil
	if err := r.store.SaveBurst(ctx, started); err != nil {
		r.release(cfg.ID)
		return nil, err
	}

	r.counters.RecordLaunch()
	r.hub.BroadcastStatus(started)
	r.logLaunch(ctx, started, conn)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(started.ID)

		working := started.Clone()
		select {
		case r.workers <- struct{}{}:
			defer func() { <-r.workers }()
		case <-runCtx.Done():
			r.fail(working, "cancelled before start", 0)
			return
		}
		r.run(runCtx, working, conn)
	}()

	return started, nil
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	if cancel, ok := r.running[id]; ok {
		cancel()
		delete(r.running, id)
	}
	r.mu.Unlock()
}

func (r *Runner) logLaunch(ctx context.Context, cfg *Configuration, conn *datatype.Connectivity) {
	model, _ := cfg.Parameter(ParamModel)
	integrator, _ := cfg.Parameter(ParamIntegrator)
	length := 0.0
	if raw, ok := cfg.Parameter(ParamSimulationLength); ok {
		length, _ = neural.ParseValue(raw)
	}
	burstlog.Launched(ctx, r.pub, 0, burstRef(cfg.ID), burstlog.LaunchPayload{
		Model:            model,
		Integrator:       integrator,
		Regions:          conn.NumberOfRegions(),
		SimulationLength: length,
	}, nil)
}

// run integrates the model over the connectivity. It owns cfg outright.
func (r *Runner) run(ctx context.Context, cfg *Configuration, conn *datatype.Connectivity) {
	begin := time.Now()

	plan, err := newRunPlan(cfg, conn)
	if err != nil {
		r.fail(cfg, err.Error(), 0)
		return
	}

	cfg.Status = StatusRunning
	r.persist(cfg)
	r.hub.BroadcastStatus(cfg)

	checkpoint := plan.steps / progressUpdates
	if checkpoint == 0 {
		checkpoint = 1
	}

	state := plan.initialState()
	tracker := newSummaryTracker(conn, state)
	for step := uint64(1); step <= plan.steps; step++ {
		select {
		case <-ctx.Done():
			r.fail(cfg, "cancelled", step)
			return
		default:
		}

		state = plan.integrator.Step(state, plan.dt, plan.derive)
		if !finiteState(state) {
			r.fail(cfg, fmt.Sprintf("integration diverged at step %d", step), step)
			return
		}
		tracker.observe(state)

		if step%checkpoint == 0 && step < plan.steps {
			cfg.Progress = float64(step) / float64(plan.steps)
			r.persist(cfg)
			r.hub.BroadcastStatus(cfg)
			burstlog.Progress(ctx, r.pub, step, burstRef(cfg.ID), burstlog.ProgressPayload{
				Progress:   cfg.Progress,
				StepsDone:  step,
				TotalSteps: plan.steps,
			}, nil)
		}
	}

	cfg.Status = StatusFinished
	cfg.Progress = 1
	cfg.Finished = time.Now().UTC()
	cfg.Summary = tracker.summary()
	r.persist(cfg)
	r.hub.BroadcastStatus(cfg)
	r.counters.RecordFinish()
	burstlog.Finished(ctx, r.pub, plan.steps, burstRef(cfg.ID), burstlog.FinishPayload{
		DurationMs: float64(time.Since(begin).Milliseconds()),
		Regions:    conn.NumberOfRegions(),
	}, nil)
}

func (r *Runner) fail(cfg *Configuration, reason string, step uint64) {
	cfg.Status = StatusError
	cfg.Error = reason
	cfg.Finished = time.Now().UTC()
	r.persist(cfg)
	r.hub.BroadcastStatus(cfg)
	r.counters.RecordFailure()
	burstlog.Failed(context.Background(), r.pub, step, burstRef(cfg.ID), burstlog.FailPayload{Reason: reason}, nil)
}

func (r *Runner) persist(cfg *Configuration) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.store.SaveBurst(ctx, cfg); err != nil {
		burstlog.Failed(ctx, r.pub, 0, burstRef(cfg.ID), burstlog.FailPayload{
			Reason: fmt.Sprintf("persist status: %v", err),
		}, nil)
	}
}

func burstRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindBurst}
}

// runPlan is everything resolved from a configuration before stepping.
type runPlan struct {
	model      neural.Model
	params     neural.Params
	integrator neural.Integrator
	dt         float64
	steps      uint64
	regions    int
	weights    [][]float64
	couplingA  float64
	couplingB  float64
	derive     neural.NetworkDerive
}

func newRunPlan(cfg *Configuration, conn *datatype.Connectivity) (*runPlan, error) {
	model, err := cfg.Model()
	if err != nil {
		return nil, err
	}
	params, err := cfg.ModelParams(model)
	if err != nil {
		return nil, err
	}

	integratorName, _ := cfg.Parameter(ParamIntegrator)
	integrator, ok := neural.LookupIntegrator(integratorName)
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q", integratorName)
	}

	dt, err := positiveParam(cfg, IntegratorParamKey(integratorName, "dt"))
	if err != nil {
		return nil, err
	}
	length, err := positiveParam(cfg, ParamSimulationLength)
	if err != nil {
		return nil, err
	}
	steps := uint64(length / dt)
	if steps == 0 {
		steps = 1
	}

	couplingName, ok := cfg.Parameter(ParamCoupling)
	if !ok {
		couplingName = DefaultCoupling
	}
	if couplingName != DefaultCoupling {
		return nil, fmt.Errorf("unknown coupling %q", couplingName)
	}
	ca := optionalParam(cfg, CouplingParamKey(couplingName, "a"), DefaultCouplingA)
	cb := optionalParam(cfg, CouplingParamKey(couplingName, "b"), DefaultCouplingB)

	plan := &runPlan{
		model:      model,
		params:     params,
		integrator: integrator,
		dt:         dt,
		steps:      steps,
		regions:    conn.NumberOfRegions(),
		weights:    conn.Weights,
		couplingA:  ca,
		couplingB:  cb,
	}
	plan.derive = plan.networkDerive
	return plan, nil
}

func (p *runPlan) initialState() [][]float64 {
	state := make([][]float64, p.regions)
	for i := range state {
		state[i] = append([]float64(nil), p.model.DefaultState()...)
	}
	return state
}

// networkDerive applies the model per region with linear coupling over
// the weighted first state variable of every other region.
func (p *runPlan) networkDerive(state [][]float64) [][]float64 {
	out := make([][]float64, len(state))
	for i := range state {
		sum := 0.0
		for j, w := range p.weights[i] {
			if w == 0 {
				continue
			}
			sum += w * state[j][0]
		}
		out[i] = p.model.Derive(state[i], p.params, p.couplingA*sum+p.couplingB)
	}
	return out
}

func positiveParam(cfg *Configuration, name string) (float64, error) {
	raw, ok := cfg.Parameter(name)
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := neural.ParseValue(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %g", name, v)
	}
	return v, nil
}

func optionalParam(cfg *Configuration, name string, fallback float64) float64 {
	raw, ok := cfg.Parameter(name)
	if !ok {
		return fallback
	}
	v, err := neural.ParseValue(raw)
	if err != nil {
		return fallback
	}
	return v
}

func finiteState(state [][]float64) bool {
	for i := range state {
		for _, v := range state[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// summaryTracker accumulates the per-region range of the first state
// variable across the run.
type summaryTracker struct {
	labels []string
	min    []float64
	max    []float64
	sum    []float64
	count  uint64
}

func newSummaryTracker(conn *datatype.Connectivity, initial [][]float64) *summaryTracker {
	t := &summaryTracker{
		labels: conn.RegionLabels,
		min:    make([]float64, len(initial)),
		max:    make([]float64, len(initial)),
		sum:    make([]float64, len(initial)),
	}
	for i := range initial {
		t.min[i] = initial[i][0]
		t.max[i] = initial[i][0]
	}
	return t
}

func (t *summaryTracker) observe(state [][]float64) {
	for i := range state {
		v := state[i][0]
		if v < t.min[i] {
			t.min[i] = v
		}
		if v > t.max[i] {
			t.max[i] = v
		}
		t.sum[i] += v
	}
	t.count++
}

func (t *summaryTracker) summary() []RegionSummary {
	out := make([]RegionSummary, len(t.min))
	for i := range out {
		mean := 0.0
		if t.count > 0 {
			mean = t.sum[i] / float64(t.count)
		}
		label := fmt.Sprintf("region-%d", i)
		if i < len(t.labels) {
			label = t.labels[i]
		}
		out[i] = RegionSummary{Region: label, Min: t.min[i], Mean: mean, Max: t.max[i]}
	}
	return out
}
