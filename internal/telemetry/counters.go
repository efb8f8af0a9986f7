package telemetry

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Counters aggregates the cheap runtime metrics the diagnostics endpoint
// reports. All methods are safe on a nil receiver so components can run
// without telemetry wired.
type Counters struct {
	requestsHandled atomic.Uint64
	geometryBytes   atomic.Uint64
	geometryChunks  atomic.Uint64
	chartRequests   atomic.Uint64
	burstsLaunched  atomic.Uint64
	burstsFinished  atomic.Uint64
	burstsFailed    atomic.Uint64
	wsSubscribers   atomic.Int64
	sessionsActive  atomic.Int64
	debug           bool
}

// Snapshot is the JSON rendering of the counters.
type Snapshot struct {
	RequestsHandled uint64 `json:"requestsHandled"`
	GeometryBytes   uint64 `json:"geometryBytes"`
	GeometryChunks  uint64 `json:"geometryChunks"`
	ChartRequests   uint64 `json:"chartRequests"`
	BurstsLaunched  uint64 `json:"burstsLaunched"`
	BurstsFinished  uint64 `json:"burstsFinished"`
	BurstsFailed    uint64 `json:"burstsFailed"`
	WSSubscribers   int64  `json:"wsSubscribers"`
	SessionsActive  int64  `json:"sessionsActive"`
}

func NewCounters() *Counters {
	c := &Counters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		c.debug = true
	}
	return c
}

// RecordRequest counts one handled HTTP request.
func (c *Counters) RecordRequest() {
	if c == nil {
		return
	}
	c.requestsHandled.Add(1)
}

// RecordGeometry counts one served geometry chunk and its size.
func (c *Counters) RecordGeometry(bytes int) {
	if c == nil {
		return
	}
	if bytes < 0 {
		bytes = 0
	}
	c.geometryBytes.Add(uint64(bytes))
	c.geometryChunks.Add(1)
	if c.debug {
		fmt.Printf("[telemetry] geometry chunk=%d bytes=%d totalBytes=%d\n",
			c.geometryChunks.Load(), bytes, c.geometryBytes.Load())
	}
}

// RecordChart counts one equation chart request.
func (c *Counters) RecordChart() {
	if c == nil {
		return
	}
	c.chartRequests.Add(1)
}

// RecordLaunch counts one started simulation run.
func (c *Counters) RecordLaunch() {
	if c == nil {
		return
	}
	c.burstsLaunched.Add(1)
}

// RecordFinish counts one completed simulation run.
func (c *Counters) RecordFinish() {
	if c == nil {
		return
	}
	c.burstsFinished.Add(1)
}

// RecordFailure counts one aborted simulation run.
func (c *Counters) RecordFailure() {
	if c == nil {
		return
	}
	c.burstsFailed.Add(1)
}

// AddWSSubscribers moves the live websocket subscriber gauge.
func (c *Counters) AddWSSubscribers(delta int64) {
	if c == nil {
		return
	}
	c.wsSubscribers.Add(delta)
}

// AddSessions moves the live session gauge.
func (c *Counters) AddSessions(delta int64) {
	if c == nil {
		return
	}
	c.sessionsActive.Add(delta)
}

// Snapshot returns a point-in-time copy for diagnostics.
func (c *Counters) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		RequestsHandled: c.requestsHandled.Load(),
		GeometryBytes:   c.geometryBytes.Load(),
		GeometryChunks:  c.geometryChunks.Load(),
		ChartRequests:   c.chartRequests.Load(),
		BurstsLaunched:  c.burstsLaunched.Load(),
		BurstsFinished:  c.burstsFinished.Load(),
		BurstsFailed:    c.burstsFailed.Load(),
		WSSubscribers:   c.wsSubscribers.Load(),
		SessionsActive:  c.sessionsActive.Load(),
	}
}
