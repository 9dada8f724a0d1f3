package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Distribution captures a statistical summary of a metric.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// ProcessAverages holds per-process averages over completed processes.
type ProcessAverages struct {
	TimesInReadyQueue float64 `json:"times_in_ready_queue"`
	TimesInIOQueue    float64 `json:"times_in_io_queue"`
	TimeInSystem      float64 `json:"time_in_system_ms"`
	MemoryWait        float64 `json:"memory_wait_ms"`
	CPUWait           float64 `json:"cpu_wait_ms"`
	CPUTime           float64 `json:"cpu_time_ms"`
	IOWait            float64 `json:"io_wait_ms"`
	IOTime            float64 `json:"io_time_ms"`
}

// Report is the end-of-run summary.
type Report struct {
	ElapsedTime        int64   `json:"elapsed_time_ms"`
	ProcessesCompleted int64   `json:"processes_completed"`
	ProcessesCreated   int64   `json:"processes_created"`
	ProcessesAdmitted  int64   `json:"processes_admitted"`
	ForcedSwitches     int64   `json:"forced_switches"`
	IOOperations       int64   `json:"io_operations"`
	Throughput         float64 `json:"throughput_per_sec"`

	CPUActiveTime  int64   `json:"cpu_active_time_ms"`
	CPUIdleTime    int64   `json:"cpu_idle_time_ms"`
	CPUUtilization float64 `json:"cpu_utilization_pct"`
	IOActiveTime   int64   `json:"io_active_time_ms"`
	IOIdleTime     int64   `json:"io_idle_time_ms"`
	IOUtilization  float64 `json:"io_utilization_pct"`

	LargestMemoryQueue int     `json:"largest_memory_queue"`
	AverageMemoryQueue float64 `json:"average_memory_queue"`
	LargestCPUQueue    int     `json:"largest_cpu_queue"`
	AverageCPUQueue    float64 `json:"average_cpu_queue"`
	LargestIOQueue     int     `json:"largest_io_queue"`
	AverageIOQueue     float64 `json:"average_io_queue"`

	// Only set when at least one process completed.
	PerProcess *ProcessAverages `json:"per_process,omitempty"`
	Turnaround Distribution     `json:"turnaround_ms"`
}

// Report summarizes the statistics over elapsed ms of simulated time.
func (s *Statistics) Report(elapsed int64) *Report {
	r := &Report{
		ElapsedTime:        elapsed,
		ProcessesCompleted: s.ProcessesCompleted,
		ProcessesCreated:   s.ProcessesCreated,
		ProcessesAdmitted:  s.ProcessesAdmitted,
		ForcedSwitches:     s.ForcedSwitches,
		IOOperations:       s.IOOperations,
		CPUActiveTime:      s.CPU.ActiveTime,
		CPUIdleTime:        s.CPU.IdleTime,
		IOActiveTime:       s.IO.ActiveTime,
		IOIdleTime:         s.IO.IdleTime,
		LargestMemoryQueue: s.MemoryQueue.Largest,
		LargestCPUQueue:    s.CPU.Queue.Largest,
		LargestIOQueue:     s.IO.Queue.Largest,
		Turnaround:         NewDistribution(s.Turnarounds),
	}

	if elapsed > 0 {
		span := float64(elapsed)
		r.Throughput = float64(s.ProcessesCompleted) / (span / 1000)
		r.CPUUtilization = 100 * float64(s.CPU.ActiveTime) / span
		r.IOUtilization = 100 * float64(s.IO.ActiveTime) / span
		r.AverageMemoryQueue = float64(s.MemoryQueue.LengthTime) / span
		r.AverageCPUQueue = float64(s.CPU.Queue.LengthTime) / span
		r.AverageIOQueue = float64(s.IO.Queue.LengthTime) / span
	}

	if n := float64(s.ProcessesCompleted); n > 0 {
		r.PerProcess = &ProcessAverages{
			TimesInReadyQueue: float64(s.TotalTimesInReadyQueue) / n,
			TimesInIOQueue:    float64(s.TotalTimesInIOQueue) / n,
			TimeInSystem:      float64(s.TotalTimeInSystem) / n,
			MemoryWait:        float64(s.TotalMemoryWait) / n,
			CPUWait:           float64(s.TotalCPUWait) / n,
			CPUTime:           float64(s.TotalCPUTime) / n,
			IOWait:            float64(s.TotalIOWait) / n,
			IOTime:            float64(s.TotalIOTime) / n,
		}
	}
	return r
}

// Print writes the textual end-of-run report to w.
func (r *Report) Print(w io.Writer) {
	line := func(label string, format string, args ...any) {
		fmt.Fprintf(w, "%-62s"+format+"\n", append([]any{label + ":"}, args...)...)
	}

	fmt.Fprintln(w, "=== Simulation Statistics ===")
	line("Simulated time", "%d ms", r.ElapsedTime)
	line("Number of completed processes", "%d", r.ProcessesCompleted)
	line("Number of created processes", "%d", r.ProcessesCreated)
	line("Number of (forced) process switches", "%d", r.ForcedSwitches)
	line("Number of processed I/O operations", "%d", r.IOOperations)
	line("Average throughput (processes per second)", "%.4f", r.Throughput)
	fmt.Fprintln(w)
	line("Total CPU time spent processing", "%d ms", r.CPUActiveTime)
	line("Fraction of CPU time spent processing", "%.2f%%", r.CPUUtilization)
	line("Total CPU time spent waiting", "%d ms", r.CPUIdleTime)
	line("Total I/O time spent processing", "%d ms", r.IOActiveTime)
	line("Fraction of I/O time spent processing", "%.2f%%", r.IOUtilization)
	fmt.Fprintln(w)
	line("Largest occurring memory queue length", "%d", r.LargestMemoryQueue)
	line("Average memory queue length", "%.4f", r.AverageMemoryQueue)
	line("Largest occurring CPU queue length", "%d", r.LargestCPUQueue)
	line("Average CPU queue length", "%.4f", r.AverageCPUQueue)
	line("Largest occurring I/O queue length", "%d", r.LargestIOQueue)
	line("Average I/O queue length", "%.4f", r.AverageIOQueue)

	if r.PerProcess == nil {
		return
	}
	pp := r.PerProcess
	fmt.Fprintln(w)
	line("Average # of times a process has been placed in memory queue", "%d", 1)
	line("Average # of times a process has been placed in CPU queue", "%.4f", pp.TimesInReadyQueue)
	line("Average # of times a process has been placed in I/O queue", "%.4f", pp.TimesInIOQueue)
	fmt.Fprintln(w)
	line("Average time spent in system per process", "%.2f ms", pp.TimeInSystem)
	line("Average time spent waiting for memory per process", "%.2f ms", pp.MemoryWait)
	line("Average time spent waiting for cpu per process", "%.2f ms", pp.CPUWait)
	line("Average time spent processing per process", "%.2f ms", pp.CPUTime)
	line("Average time spent waiting for I/O per process", "%.2f ms", pp.IOWait)
	line("Average time spent in I/O per process", "%.2f ms", pp.IOTime)
	fmt.Fprintln(w)
	line("Turnaround p50", "%.2f ms", r.Turnaround.P50)
	line("Turnaround p95", "%.2f ms", r.Turnaround.P95)
	line("Turnaround max", "%.2f ms", r.Turnaround.Max)
}

// SaveResults writes the report as indented JSON to path.
func (r *Report) SaveResults(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	logrus.Infof("Report written to %s", path)
	return nil
}
