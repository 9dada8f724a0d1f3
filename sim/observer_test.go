package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/procsim/procsim/sim/trace"
)

func TestMultiObserver_FansOutInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first, second := NewMockObserver(ctrl), NewMockObserver(ctrl)
	info := &ProcessInfo{ID: 3}
	ti := TransitionInfo{ProcessID: 3, From: StateReadyQueue, To: StateInCPU, Time: 4}

	gomock.InOrder(
		first.EXPECT().SetCPUActive(info),
		second.EXPECT().SetCPUActive(info),
	)
	first.EXPECT().SetIOActive(nil)
	second.EXPECT().SetIOActive(nil)
	first.EXPECT().TimePassed(int64(4), int64(100))
	second.EXPECT().TimePassed(int64(4), int64(100))
	first.EXPECT().ProcessTransition(ti)
	second.EXPECT().ProcessTransition(ti)

	m := MultiObserver{first, second}
	m.SetCPUActive(info)
	m.SetIOActive(nil)
	m.TimePassed(4, 100)
	m.ProcessTransition(ti)
}

func TestTraceObserver_TransitionsLevelSkipsOccupancy(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelTransitions})
	o := NewTraceObserver(st)

	o.TimePassed(10, 0)
	o.SetCPUActive(&ProcessInfo{ID: 1})
	o.ProcessTransition(TransitionInfo{ProcessID: 1, From: StateReadyQueue, To: StateInCPU, Time: 10})

	assert.Empty(t, st.Occupancy)
	assert.Equal(t, []trace.TransitionRecord{{ProcessID: 1, From: "ready_queue", To: "in_cpu", Clock: 10}}, st.Transitions)
}

func TestTraceObserver_NoneLevelRecordsNothing(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelNone})
	o := NewTraceObserver(st)

	o.SetIOActive(&ProcessInfo{ID: 1})
	o.ProcessTransition(TransitionInfo{ProcessID: 1, From: StateIOQueue, To: StateInIO})

	assert.Empty(t, st.Occupancy)
	assert.Empty(t, st.Transitions)
}

func TestTraceObserver_OccupancyUsesAccumulatedClock(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelOccupancy})
	o := NewTraceObserver(st)

	o.TimePassed(5, 0)
	o.TimePassed(7, 0)
	o.SetIOActive(&ProcessInfo{ID: 2})

	assert.Equal(t, []trace.OccupancyRecord{{Device: trace.DeviceIO, ProcessID: 2, Clock: 12}}, st.Occupancy)
}

func TestLogAndNopObservers_AcceptEverything(t *testing.T) {
	for _, o := range []Observer{NopObserver{}, LogObserver{}} {
		assert.NotPanics(t, func() {
			o.TimePassed(1, 1)
			o.SetCPUActive(nil)
			o.SetCPUActive(&ProcessInfo{ID: 1})
			o.SetIOActive(nil)
			o.SetIOActive(&ProcessInfo{ID: 1})
			o.ProcessTransition(TransitionInfo{ProcessID: 1})
		})
	}
}
