package sim

// IODevice is a single-server FIFO device. An occupant runs for its whole
// I/O duration and is never preempted.
type IODevice struct {
	server
}

// NewIODevice creates an idle I/O device.
func NewIODevice(stats *Statistics) *IODevice {
	return &IODevice{
		server: server{
			queueState:  StateIOQueue,
			activeState: StateInIO,
			usage:       &stats.IO,
		},
	}
}
