package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTransitions  int
	DistinctProcesses int
	Edges             map[string]int // "from->to" -> count
	ByTargetState     map[string]int // state entered -> count
	ForcedSwitches    int            // in_cpu -> ready_queue edges
	CPUBusyPeriods    int            // occupancy records putting a process on the CPU
	IOBusyPeriods     int            // occupancy records putting a process on the I/O device
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Edges:         make(map[string]int),
		ByTargetState: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	processes := make(map[int64]struct{})
	summary.TotalTransitions = len(st.Transitions)
	for _, t := range st.Transitions {
		summary.Edges[t.Edge()]++
		summary.ByTargetState[t.To]++
		if t.From == "in_cpu" && t.To == "ready_queue" {
			summary.ForcedSwitches++
		}
		processes[t.ProcessID] = struct{}{}
	}
	summary.DistinctProcesses = len(processes)

	for _, o := range st.Occupancy {
		if o.ProcessID == 0 {
			continue
		}
		switch o.Device {
		case DeviceCPU:
			summary.CPUBusyPeriods++
		case DeviceIO:
			summary.IOBusyPeriods++
		}
	}

	return summary
}
