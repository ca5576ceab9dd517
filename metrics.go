package nest

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// FrameEventKind identifies the lifecycle transition an observability hook
// is reporting.
type FrameEventKind int

const (
	EventStarted FrameEventKind = iota
	EventReturned
	EventErrored
	EventHalted
	EventPanicked
)

func (k FrameEventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventReturned:
		return "returned"
	case EventErrored:
		return "errored"
	case EventHalted:
		return "halted"
	case EventPanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// FrameEvent is reported to a WithOnEvent hook for every Frame lifecycle
// transition: one Started when a Frame begins running, and exactly one of
// Returned/Errored/Halted/Panicked when it closes.
type FrameEvent struct {
	Frame ID
	Name  string
	Kind  FrameEventKind
	Err   error
}

// Metrics is a live, lock-free snapshot of runtime activity, safe to read
// concurrently with the Frames it is counting.
type Metrics struct {
	Spawned   int64
	Active    int64
	Completed int64
	Errored   int64
	Panicked  int64
	Halted    int64
}

type metricsCounters struct {
	spawned, active, completed, errored, panicked, halted atomic.Int64
	prom                                                  *prometheusCounters
}

type prometheusCounters struct {
	spawned   prometheus.Counter
	active    prometheus.Gauge
	completed prometheus.Counter
	errored   prometheus.Counter
	panicked  prometheus.Counter
	halted    prometheus.Counter
}

func newMetricsCounters() *metricsCounters {
	return &metricsCounters{}
}

func (m *metricsCounters) onStart() {
	m.spawned.Add(1)
	m.active.Add(1)
	if m.prom != nil {
		m.prom.spawned.Inc()
		m.prom.active.Inc()
	}
}

func (m *metricsCounters) onDone(outcome Outcome) {
	m.active.Add(-1)
	m.completed.Add(1)
	if m.prom != nil {
		m.prom.active.Dec()
		m.prom.completed.Inc()
	}
	switch {
	case outcome.IsErrored():
		m.errored.Add(1)
		if m.prom != nil {
			m.prom.errored.Inc()
		}
		var pe *PanicError
		if errors.As(outcome.Err(), &pe) {
			m.panicked.Add(1)
			if m.prom != nil {
				m.prom.panicked.Inc()
			}
		}
	case outcome.IsHalted():
		m.halted.Add(1)
		if m.prom != nil {
			m.prom.halted.Inc()
		}
	}
}

func (m *metricsCounters) snapshot() Metrics {
	return Metrics{
		Spawned:   m.spawned.Load(),
		Active:    m.active.Load(),
		Completed: m.completed.Load(),
		Errored:   m.errored.Load(),
		Panicked:  m.panicked.Load(),
		Halted:    m.halted.Load(),
	}
}

// registerPrometheus registers the runtime's counters with reg under the
// nest_ namespace and wires them to also be updated on every Frame event.
func (m *metricsCounters) registerPrometheus(reg prometheus.Registerer) error {
	pc := &prometheusCounters{
		spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nest_frames_spawned_total",
			Help: "Total number of Frames admitted into a Scope.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nest_frames_active",
			Help: "Number of Frames currently running.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nest_frames_completed_total",
			Help: "Total number of Frames that have closed, regardless of outcome.",
		}),
		errored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nest_frames_errored_total",
			Help: "Total number of Frames that closed with an Errored outcome.",
		}),
		panicked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nest_frames_panicked_total",
			Help: "Total number of Frames whose Errored outcome originated from a recovered panic.",
		}),
		halted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nest_frames_halted_total",
			Help: "Total number of Frames that closed with a Halted outcome.",
		}),
	}
	for _, c := range []prometheus.Collector{pc.spawned, pc.active, pc.completed, pc.errored, pc.panicked, pc.halted} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	m.prom = pc
	return nil
}
