package storelog

import (
	"context"

	"github.com/nsiona/tvb-framework/logging"
)

const (
	// EventDatatypeStored is emitted when a datatype lands in the store.
	EventDatatypeStored logging.EventType = "storage.datatype_stored"
	// EventBurstSaved is emitted when a configuration is persisted.
	EventBurstSaved logging.EventType = "storage.burst_saved"
	// EventBurstDeleted is emitted when a configuration is removed.
	EventBurstDeleted logging.EventType = "storage.burst_deleted"
	// EventGeometryServed is emitted for every surface chunk delivered.
	EventGeometryServed logging.EventType = "storage.geometry_served"
)

// DatatypePayload identifies a stored datatype.
type DatatypePayload struct {
	Kind    string `json:"kind"`
	Project string `json:"project"`
	Label   string `json:"label,omitempty"`
}

// BurstPayload identifies a persisted configuration.
type BurstPayload struct {
	Project string `json:"project"`
	Status  string `json:"status,omitempty"`
}

// GeometryPayload describes one served surface chunk.
type GeometryPayload struct {
	Kind  string `json:"kind"`
	Chunk int    `json:"chunk"`
	Pick  bool   `json:"pick,omitempty"`
	Bytes int    `json:"bytes"`
}

// DatatypeStored publishes a datatype persistence event.
func DatatypeStored(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload DatatypePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDatatypeStored,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryStorage,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// BurstSaved publishes a configuration persistence event.
func BurstSaved(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload BurstPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventBurstSaved,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryStorage,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// BurstDeleted publishes a configuration removal event.
func BurstDeleted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload BurstPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventBurstDeleted,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryStorage,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// GeometryServed publishes a chunk delivery event. High volume, so it
// stays at debug.
func GeometryServed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload GeometryPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventGeometryServed,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryStorage,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
