package sim

// CPU is a single-server round-robin scheduler with one ready queue.
type CPU struct {
	server
	quantum int64
}

// NewCPU creates an idle CPU granting at most quantum ms per turn.
func NewCPU(quantum int64, stats *Statistics) *CPU {
	return &CPU{
		server: server{
			queueState:  StateReadyQueue,
			activeState: StateInCPU,
			usage:       &stats.CPU,
		},
		quantum: quantum,
	}
}

// Quantum returns the maximum uninterrupted service time per turn.
func (c *CPU) Quantum() int64 {
	return c.quantum
}

// NextBurst decides how the turn of a freshly dispatched process ends and
// after how many ms. Whichever of completion, I/O and quantum expiry comes
// first wins. Completion beats both I/O and quantum expiry on a tie, and
// I/O beats quantum expiry on a tie.
func (c *CPU) NextBurst(p *Process) (EventType, int64) {
	remaining := p.CPUTimeRemaining
	io := remaining
	if p.PerformsIO() {
		io = p.TimeToNextIO
	}

	switch {
	case remaining <= c.quantum && remaining <= io:
		return ProcessFinished, remaining
	case p.PerformsIO() && io <= c.quantum:
		return IORequested, io
	default:
		return CpuQuantumExpired, c.quantum
	}
}
