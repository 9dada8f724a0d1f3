package sim

// server is the single-server FIFO shared by the CPU and the I/O device:
// one occupant at a time, everyone else waits in arrival order.
type server struct {
	transitionNotifier

	current     *Process
	queue       ProcessQueue
	queueState  ProcessState
	activeState ProcessState
	usage       *DeviceStats
}

// Current returns the process occupying the device, or nil when idle.
func (s *server) Current() *Process { return s.current }
func (s *server) Busy() bool        { return s.current != nil }
func (s *server) QueueLen() int     { return s.queue.Len() }

// Queue returns the waiting processes, head first.
func (s *server) Queue() []*Process {
	return s.queue.Items()
}

// Enqueue appends p to the waiting queue, moving it into the queue state
// unless it is already there.
func (s *server) Enqueue(p *Process, now int64) error {
	if p.State != s.queueState {
		if err := s.move(p, s.queueState, now); err != nil {
			return err
		}
	}
	s.queue.Enqueue(p)
	return nil
}

// DispatchNext puts the head of the queue on an idle device and returns it.
// Returns nil if the device is busy or nobody is waiting.
func (s *server) DispatchNext(now int64) *Process {
	if s.current != nil {
		return nil
	}
	p := s.queue.Dequeue()
	if p == nil {
		return nil
	}
	if err := s.move(p, s.activeState, now); err != nil {
		// Only processes in queueState are ever enqueued.
		panic(err.Error())
	}
	s.current = p
	return p
}

// Release vacates the device and returns the former occupant.
func (s *server) Release() *Process {
	p := s.current
	s.current = nil
	return p
}

// TimePassed charges the elapsed interval to idle or active time and
// accumulates the queue length integral.
func (s *server) TimePassed(elapsed int64) {
	if s.current == nil {
		s.usage.IdleTime += elapsed
	} else {
		s.usage.ActiveTime += elapsed
	}
	s.usage.Queue.observe(s.queue.Len(), elapsed)
}
