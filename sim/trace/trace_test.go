package trace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SimulationTrace", func() {
	It("should accept the known trace levels", func() {
		for _, level := range []string{"", "none", "transitions", "occupancy"} {
			Expect(IsValidTraceLevel(level)).To(BeTrue(), level)
		}
		Expect(IsValidTraceLevel("verbose")).To(BeFalse())
	})

	It("should give each trace its own run id", func() {
		a := NewSimulationTrace(TraceConfig{Level: TraceLevelTransitions})
		b := NewSimulationTrace(TraceConfig{Level: TraceLevelTransitions})

		Expect(a.RunID).NotTo(BeEmpty())
		Expect(a.RunID).NotTo(Equal(b.RunID))
	})

	It("should gate recording on the level", func() {
		none := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})
		Expect(none.RecordsTransitions()).To(BeFalse())
		Expect(none.RecordsOccupancy()).To(BeFalse())

		transitions := NewSimulationTrace(TraceConfig{Level: TraceLevelTransitions})
		Expect(transitions.RecordsTransitions()).To(BeTrue())
		Expect(transitions.RecordsOccupancy()).To(BeFalse())

		occupancy := NewSimulationTrace(TraceConfig{Level: TraceLevelOccupancy})
		Expect(occupancy.RecordsTransitions()).To(BeTrue())
		Expect(occupancy.RecordsOccupancy()).To(BeTrue())
	})

	It("should append records in order", func() {
		st := NewSimulationTrace(TraceConfig{Level: TraceLevelOccupancy})

		st.RecordTransition(TransitionRecord{ProcessID: 1, From: "awaiting_memory", To: "ready_queue", Clock: 0})
		st.RecordTransition(TransitionRecord{ProcessID: 1, From: "ready_queue", To: "in_cpu", Clock: 0})
		st.RecordOccupancy(OccupancyRecord{Device: DeviceCPU, ProcessID: 1, Clock: 0})

		Expect(st.Transitions).To(HaveLen(2))
		Expect(st.Transitions[1].Edge()).To(Equal("ready_queue->in_cpu"))
		Expect(st.Occupancy).To(ConsistOf(OccupancyRecord{Device: DeviceCPU, ProcessID: 1, Clock: 0}))
	})
})
