package trace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Summarize", func() {
	It("should return an empty summary for a nil trace", func() {
		s := Summarize(nil)

		Expect(s.TotalTransitions).To(BeZero())
		Expect(s.DistinctProcesses).To(BeZero())
		Expect(s.Edges).To(BeEmpty())
		Expect(s.ByTargetState).To(BeEmpty())
	})

	It("should count edges, target states and processes", func() {
		st := NewSimulationTrace(TraceConfig{Level: TraceLevelTransitions})
		st.RecordTransition(TransitionRecord{ProcessID: 1, From: "ready_queue", To: "in_cpu", Clock: 0})
		st.RecordTransition(TransitionRecord{ProcessID: 1, From: "in_cpu", To: "ready_queue", Clock: 10})
		st.RecordTransition(TransitionRecord{ProcessID: 2, From: "ready_queue", To: "in_cpu", Clock: 10})
		st.RecordTransition(TransitionRecord{ProcessID: 2, From: "in_cpu", To: "finished", Clock: 15})

		s := Summarize(st)

		Expect(s.TotalTransitions).To(Equal(4))
		Expect(s.DistinctProcesses).To(Equal(2))
		Expect(s.Edges).To(HaveKeyWithValue(EdgeKey("ready_queue", "in_cpu"), 2))
		Expect(s.Edges).To(HaveKeyWithValue(EdgeKey("in_cpu", "finished"), 1))
		Expect(s.ByTargetState).To(HaveKeyWithValue("in_cpu", 2))
		Expect(s.ByTargetState).To(HaveKeyWithValue("ready_queue", 1))
		Expect(s.ForcedSwitches).To(Equal(1))
	})

	It("should count busy periods but not idle records", func() {
		st := NewSimulationTrace(TraceConfig{Level: TraceLevelOccupancy})
		st.RecordOccupancy(OccupancyRecord{Device: DeviceCPU, ProcessID: 1, Clock: 0})
		st.RecordOccupancy(OccupancyRecord{Device: DeviceCPU, ProcessID: 0, Clock: 5})
		st.RecordOccupancy(OccupancyRecord{Device: DeviceIO, ProcessID: 1, Clock: 5})
		st.RecordOccupancy(OccupancyRecord{Device: DeviceCPU, ProcessID: 2, Clock: 5})

		s := Summarize(st)

		Expect(s.CPUBusyPeriods).To(Equal(2))
		Expect(s.IOBusyPeriods).To(Equal(1))
	})
})
