package obs

import (
	"sync/atomic"
	"time"

	"ibgw/internal/dispatch"
)

// Counter identifies a request lifecycle counter.
type Counter int

const (
	CounterCreated Counter = iota
	CounterCoalesced
	CounterSent
	CounterData
	CounterKeptAlive
	CounterCompleted
	CounterCancelled
	CounterFailed
	CounterTimedOut
	CounterDropped
	CounterDisconnects
	CounterSwept
	counterLen
)

func (c Counter) String() string {
	switch c {
	case CounterCreated:
		return "created"
	case CounterCoalesced:
		return "coalesced"
	case CounterSent:
		return "sent"
	case CounterData:
		return "data"
	case CounterKeptAlive:
		return "kept_alive"
	case CounterCompleted:
		return "completed"
	case CounterCancelled:
		return "cancelled"
	case CounterFailed:
		return "failed"
	case CounterTimedOut:
		return "timed_out"
	case CounterDropped:
		return "dropped"
	case CounterDisconnects:
		return "disconnects"
	case CounterSwept:
		return "swept"
	default:
		return "unknown"
	}
}

// Metrics collects lightweight counters and latency stats of a dispatch.
// It is a dispatch.Observer.
type Metrics struct {
	counters    [counterLen]uint64
	queueDrops  uint64
	queueClosed uint64

	requestLatency LatencyStats
	firstPayload   LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Counters       map[Counter]uint64
	QueueDrops     uint64
	QueueClosed    uint64
	RequestLatency LatencySnapshot
	FirstPayload   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Observe counts a lifecycle event. Request latency runs from send to the
// terminal state, first payload latency from send to the first payload.
func (m *Metrics) Observe(ev dispatch.Event) {
	if m == nil {
		return
	}
	switch ev.Type {
	case dispatch.EventCreated:
		m.inc(CounterCreated)
	case dispatch.EventCoalesced:
		m.inc(CounterCoalesced)
	case dispatch.EventSent:
		m.inc(CounterSent)
	case dispatch.EventData:
		m.inc(CounterData)
		if ev.Payloads == 1 && !ev.Sent.IsZero() && !ev.First.IsZero() {
			m.firstPayload.Observe(ev.First.Sub(ev.Sent))
		}
	case dispatch.EventEnd:
		m.inc(CounterKeptAlive)
	case dispatch.EventTerminal:
		m.terminal(ev)
	case dispatch.EventDropped:
		m.inc(CounterDropped)
	case dispatch.EventDisconnect:
		m.inc(CounterDisconnects)
		atomic.AddUint64(&m.counters[CounterSwept], uint64(ev.Swept))
	}
}

func (m *Metrics) terminal(ev dispatch.Event) {
	switch ev.State {
	case dispatch.StateCompleted:
		m.inc(CounterCompleted)
	case dispatch.StateCancelled:
		m.inc(CounterCancelled)
	case dispatch.StateFailed:
		m.inc(CounterFailed)
	}
	if ev.TimedOut {
		m.inc(CounterTimedOut)
	}
	if !ev.Sent.IsZero() && !ev.At.IsZero() {
		m.requestLatency.Observe(ev.At.Sub(ev.Sent))
	}
}

// IncQueueDrop records an event rejected by a full queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// Count returns the current value of c.
func (m *Metrics) Count(c Counter) uint64 {
	if m == nil || c < 0 || c >= counterLen {
		return 0
	}
	return atomic.LoadUint64(&m.counters[c])
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	counters := make(map[Counter]uint64)
	for i := range m.counters {
		if v := atomic.LoadUint64(&m.counters[i]); v > 0 {
			counters[Counter(i)] = v
		}
	}
	return Snapshot{
		Counters:       counters,
		QueueDrops:     atomic.LoadUint64(&m.queueDrops),
		QueueClosed:    atomic.LoadUint64(&m.queueClosed),
		RequestLatency: m.requestLatency.Snapshot(),
		FirstPayload:   m.firstPayload.Snapshot(),
	}
}

func (m *Metrics) inc(c Counter) {
	atomic.AddUint64(&m.counters[c], 1)
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
