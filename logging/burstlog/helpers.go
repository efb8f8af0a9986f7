package burstlog

import (
	"context"

	"github.com/nsiona/tvb-framework/logging"
)

const (
	// EventLaunched is emitted when a configuration starts running.
	EventLaunched logging.EventType = "burst.launched"
	// EventProgress is emitted as the integration advances.
	EventProgress logging.EventType = "burst.progress"
	// EventFinished is emitted when a run completes.
	EventFinished logging.EventType = "burst.finished"
	// EventFailed is emitted when a run aborts.
	EventFailed logging.EventType = "burst.failed"
)

// LaunchPayload describes the simulation being started.
type LaunchPayload struct {
	Model            string  `json:"model"`
	Integrator       string  `json:"integrator"`
	Regions          int     `json:"regions"`
	SimulationLength float64 `json:"simulationLength"`
}

// ProgressPayload reports how far a run has advanced.
type ProgressPayload struct {
	Progress   float64 `json:"progress"`
	StepsDone  uint64  `json:"stepsDone"`
	TotalSteps uint64  `json:"totalSteps"`
}

// FinishPayload summarizes a completed run.
type FinishPayload struct {
	DurationMs float64 `json:"durationMs"`
	Regions    int     `json:"regions"`
}

// FailPayload carries the abort reason.
type FailPayload struct {
	Reason string `json:"reason"`
}

// Launched publishes a run start event.
func Launched(ctx context.Context, pub logging.Publisher, step uint64, actor logging.EntityRef, payload LaunchPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLaunched,
		Step:     step,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBurst,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Progress publishes a run progress event.
func Progress(ctx context.Context, pub logging.Publisher, step uint64, actor logging.EntityRef, payload ProgressPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventProgress,
		Step:     step,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryBurst,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Finished publishes a run completion event.
func Finished(ctx context.Context, pub logging.Publisher, step uint64, actor logging.EntityRef, payload FinishPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFinished,
		Step:     step,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBurst,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Failed publishes a run abort event.
func Failed(ctx context.Context, pub logging.Publisher, step uint64, actor logging.EntityRef, payload FailPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFailed,
		Step:     step,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryBurst,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
