package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/trace"
)

// Observer receives notifications about device occupancy and process
// transitions. It only ever sees snapshots, so it cannot alter the run.
type Observer interface {
	// TimePassed is called on every clock movement, including zero-length ones.
	TimePassed(elapsed int64, freeMemory int64)
	// SetCPUActive reports the process now on the CPU; nil means idle.
	SetCPUActive(p *ProcessInfo)
	// SetIOActive reports the process now on the I/O device; nil means idle.
	SetIOActive(p *ProcessInfo)
	ProcessTransition(t TransitionInfo)
}

// NopObserver ignores every notification. It is the default observer.
type NopObserver struct{}

func (NopObserver) TimePassed(int64, int64)          {}
func (NopObserver) SetCPUActive(*ProcessInfo)        {}
func (NopObserver) SetIOActive(*ProcessInfo)         {}
func (NopObserver) ProcessTransition(TransitionInfo) {}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) TimePassed(elapsed int64, freeMemory int64) {
	for _, o := range m {
		o.TimePassed(elapsed, freeMemory)
	}
}

func (m MultiObserver) SetCPUActive(p *ProcessInfo) {
	for _, o := range m {
		o.SetCPUActive(p)
	}
}

func (m MultiObserver) SetIOActive(p *ProcessInfo) {
	for _, o := range m {
		o.SetIOActive(p)
	}
}

func (m MultiObserver) ProcessTransition(t TransitionInfo) {
	for _, o := range m {
		o.ProcessTransition(t)
	}
}

// LogObserver writes occupancy changes and transitions to logrus at debug level.
type LogObserver struct{}

func (LogObserver) TimePassed(elapsed int64, freeMemory int64) {
	logrus.Tracef("time passed: %d ms, free memory: %d KB", elapsed, freeMemory)
}

func (LogObserver) SetCPUActive(p *ProcessInfo) {
	if p == nil {
		logrus.Debugf("CPU idle")
		return
	}
	logrus.Debugf("CPU running process %d (remaining %d ms)", p.ID, p.CPUTimeRemaining)
}

func (LogObserver) SetIOActive(p *ProcessInfo) {
	if p == nil {
		logrus.Debugf("I/O idle")
		return
	}
	logrus.Debugf("I/O serving process %d", p.ID)
}

func (LogObserver) ProcessTransition(t TransitionInfo) {
	logrus.Debugf("[tick %07d] process %d: %s -> %s", t.Time, t.ProcessID, t.From, t.To)
}

// TraceObserver records transitions and device occupancy into a SimulationTrace.
type TraceObserver struct {
	Trace *trace.SimulationTrace
	clock int64
}

// NewTraceObserver creates an observer appending to st.
func NewTraceObserver(st *trace.SimulationTrace) *TraceObserver {
	return &TraceObserver{Trace: st}
}

func (o *TraceObserver) TimePassed(elapsed int64, _ int64) {
	o.clock += elapsed
}

func (o *TraceObserver) SetCPUActive(p *ProcessInfo) {
	o.recordOccupancy(trace.DeviceCPU, p)
}

func (o *TraceObserver) SetIOActive(p *ProcessInfo) {
	o.recordOccupancy(trace.DeviceIO, p)
}

func (o *TraceObserver) ProcessTransition(t TransitionInfo) {
	if !o.Trace.RecordsTransitions() {
		return
	}
	o.Trace.RecordTransition(trace.TransitionRecord{
		ProcessID: t.ProcessID,
		From:      string(t.From),
		To:        string(t.To),
		Clock:     t.Time,
	})
}

func (o *TraceObserver) recordOccupancy(device string, p *ProcessInfo) {
	if !o.Trace.RecordsOccupancy() {
		return
	}
	rec := trace.OccupancyRecord{Device: device, Clock: o.clock}
	if p != nil {
		rec.ProcessID = p.ID
	}
	o.Trace.RecordOccupancy(rec)
}

// transitionNotifier lets devices report the lifecycle edges they cause.
type transitionNotifier struct {
	onTransition func(TransitionInfo)
}

func (n *transitionNotifier) move(p *Process, to ProcessState, now int64) error {
	info, err := p.transition(to, now)
	if err != nil {
		return err
	}
	if n.onTransition != nil {
		n.onTransition(info)
	}
	return nil
}
