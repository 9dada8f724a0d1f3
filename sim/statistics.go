// Tracks simulation-wide and per-process statistics: counters, device
// idle/active time, queue length integrals and per-process time totals.

package sim

// QueueStats accumulates a queue's length over time.
type QueueStats struct {
	LengthTime int64 // Integral of queue length over time (processes x ms)
	Largest    int   // Largest length observed
}

func (q *QueueStats) observe(length int, elapsed int64) {
	q.LengthTime += int64(length) * elapsed
	if length > q.Largest {
		q.Largest = length
	}
}

// DeviceStats accumulates a single-server device's occupancy.
type DeviceStats struct {
	IdleTime   int64
	ActiveTime int64
	Queue      QueueStats
}

// Statistics aggregates everything recorded during one simulation run.
// Fields only ever grow; they are read when the report is produced.
type Statistics struct {
	ProcessesCreated   int64
	ProcessesAdmitted  int64
	ProcessesCompleted int64
	ForcedSwitches     int64 // CPU preemptions caused by quantum expiry
	IOOperations       int64 // Completed I/O episodes

	MemoryQueue QueueStats
	CPU         DeviceStats
	IO          DeviceStats

	// Totals over completed processes
	TotalTimeInSystem      int64
	TotalMemoryWait        int64
	TotalCPUWait           int64
	TotalCPUTime           int64
	TotalIOWait            int64
	TotalIOTime            int64
	TotalTimesInReadyQueue int64
	TotalTimesInIOQueue    int64

	Turnarounds []float64 // time in system (ms) of each completed process, in completion order
}

// NewStatistics creates an empty Statistics.
func NewStatistics() *Statistics {
	return &Statistics{Turnarounds: make([]float64, 0)}
}

func (s *Statistics) processCreated()  { s.ProcessesCreated++ }
func (s *Statistics) processAdmitted() { s.ProcessesAdmitted++ }
func (s *Statistics) forcedSwitch()    { s.ForcedSwitches++ }
func (s *Statistics) ioOperation()     { s.IOOperations++ }

// processFinished folds a finished process's counters into the totals.
func (s *Statistics) processFinished(p *Process, now int64) {
	s.ProcessesCompleted++
	s.TotalTimeInSystem += now - p.CreatedAt
	s.TotalMemoryWait += p.TimeWaitingForMemory
	s.TotalCPUWait += p.TimeInReadyQueue
	s.TotalCPUTime += p.TimeInCPU
	s.TotalIOWait += p.TimeWaitingForIO
	s.TotalIOTime += p.TimeInIO
	s.TotalTimesInReadyQueue += p.TimesInReadyQueue
	s.TotalTimesInIOQueue += p.TimesInIOQueue
	s.Turnarounds = append(s.Turnarounds, float64(now-p.CreatedAt))
}
