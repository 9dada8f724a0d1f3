// sim/simulator.go
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

var (
	// ErrSimulationExhausted means the event queue ran dry before the
	// simulation length was reached. It ends the run normally.
	ErrSimulationExhausted = errors.New("simulation exhausted: no pending events")

	// ErrWindowClosed means the next event falls at or past the simulation length.
	ErrWindowClosed = errors.New("simulation window closed")
)

// Simulator is the core object that holds simulation time, the devices and the event loop.
type Simulator struct {
	transitionNotifier

	cfg    Config
	clock  Clock
	events *EventQueue

	memory *Memory
	cpu    *CPU
	io     *IODevice
	stats  *Statistics

	factory    *ProcessFactory
	rng        *PartitionedRNG
	arrivalRNG *rand.Rand
	arrivals   IntervalSampler
	ioDuration func() int64
	observer   Observer

	// live processes by ID; finished processes are dropped
	processes map[int64]*Process

	started bool
	stopErr error
}

// Option customizes a Simulator at construction.
type Option func(*Simulator)

// WithObserver attaches an observer. Without one, notifications go nowhere.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// WithRNG replaces the RNG derived from Config.Seed.
func WithRNG(rng *PartitionedRNG) Option {
	return func(s *Simulator) { s.rng = rng }
}

// WithIODuration replaces the sampled I/O duration with fn.
func WithIODuration(fn func() int64) Option {
	return func(s *Simulator) { s.ioDuration = fn }
}

// NewSimulator validates cfg and builds an idle simulator at time zero.
func NewSimulator(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stats := NewStatistics()
	s := &Simulator{
		cfg:       cfg,
		events:    NewEventQueue(),
		memory:    NewMemory(cfg.MemoryCapacity, stats),
		cpu:       NewCPU(cfg.CPUQuantum, stats),
		io:        NewIODevice(stats),
		stats:     stats,
		observer:  NopObserver{},
		processes: make(map[int64]*Process),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	}
	s.factory = NewProcessFactory(s.rng.ForSubsystem(SubsystemWorkload))
	s.arrivalRNG = s.rng.ForSubsystem(SubsystemArrival)
	arrivals, err := NewIntervalSampler(cfg.ArrivalProcess, cfg.AvgArrivalInterval, cfg.ArrivalCV)
	if err != nil {
		return nil, err
	}
	s.arrivals = arrivals
	if s.ioDuration == nil {
		ioRNG := s.rng.ForSubsystem(SubsystemIO)
		ioSampler := UniformSampler{mean: cfg.AvgIODuration}
		s.ioDuration = func() int64 { return ioSampler.Sample(ioRNG) }
	}

	s.onTransition = s.notifyTransition
	s.memory.onTransition = s.notifyTransition
	s.cpu.onTransition = s.notifyTransition
	s.io.onTransition = s.notifyTransition
	return s, nil
}

func (s *Simulator) Clock() int64       { return s.clock.Now() }
func (s *Simulator) Config() Config     { return s.cfg }
func (s *Simulator) Stats() *Statistics { return s.stats }
func (s *Simulator) Memory() *Memory    { return s.memory }
func (s *Simulator) CPU() *CPU          { return s.cpu }
func (s *Simulator) IO() *IODevice      { return s.io }
func (s *Simulator) PendingEvents() int { return s.events.Len() }

// Report summarizes the run up to the current clock.
func (s *Simulator) Report() *Report {
	return s.stats.Report(s.clock.Now())
}

// Process returns the live process with the given ID, or nil once it has finished.
func (s *Simulator) Process(id int64) *Process {
	return s.processes[id]
}

// Processes returns the live (unfinished) processes ordered by ID.
func (s *Simulator) Processes() []*Process {
	out := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InjectProcess schedules the arrival of a process with explicit demands at
// time at and returns it. Injected arrivals do not spawn further arrivals.
func (s *Simulator) InjectProcess(memoryNeeded, cpuTimeNeeded, ioInterval, at int64) (*Process, error) {
	if at < s.clock.Now() {
		return nil, fmt.Errorf("cannot inject process at %d: clock is already at %d", at, s.clock.Now())
	}
	if memoryNeeded <= 0 || memoryNeeded > s.cfg.MemoryCapacity {
		return nil, fmt.Errorf("process memory %d KB must be in (0, %d]", memoryNeeded, s.cfg.MemoryCapacity)
	}
	if cpuTimeNeeded <= 0 {
		return nil, fmt.Errorf("process cpu time must be positive, got %d", cpuTimeNeeded)
	}
	p := s.factory.NewWithDemands(memoryNeeded, cpuTimeNeeded, ioInterval, at)
	s.schedule(NewProcessArrival, at, p)
	return p, nil
}

func (s *Simulator) schedule(kind EventType, at int64, p *Process) {
	ev := &Event{Type: kind, Time: at, Process: p}
	if p != nil {
		ev.burst = p.burst
	}
	s.events.Insert(ev)
}

// start seeds the arrival generator once, before the first step.
func (s *Simulator) start() {
	if s.started {
		return
	}
	s.started = true
	if s.cfg.AvgArrivalInterval > 0 {
		s.schedule(NewProcessArrival, s.clock.Now(), nil)
	}
}

// Run steps the simulation until the window closes or events run out,
// then returns the report.
func (s *Simulator) Run() *Report {
	logrus.Infof("Starting simulation: memory=%dKB quantum=%dms avgIO=%dms length=%dms avgArrival=%dms (%s) seed=%d",
		s.cfg.MemoryCapacity, s.cfg.CPUQuantum, s.cfg.AvgIODuration, s.cfg.SimulationLength,
		s.cfg.AvgArrivalInterval, s.cfg.ArrivalProcess, s.cfg.Seed)

	var err error
	for err == nil {
		err = s.Step()
	}
	logrus.Infof("[tick %07d] Simulation ended: %v", s.clock.Now(), err)
	return s.Report()
}

// Step pops the earliest event, advances the clock, tells every device how
// much time passed and executes the event. It returns ErrSimulationExhausted
// or ErrWindowClosed once the run is over, and keeps returning it.
func (s *Simulator) Step() error {
	if s.stopErr != nil {
		return s.stopErr
	}
	s.start()

	ev, err := s.events.PopEarliest()
	if err != nil {
		s.stopErr = ErrSimulationExhausted
		return s.stopErr
	}
	if ev.Time >= s.cfg.SimulationLength {
		s.advance(s.cfg.SimulationLength)
		logrus.Debugf("[tick %07d] Discarding %s outside the simulation window", s.clock.Now(), ev)
		s.stopErr = ErrWindowClosed
		return s.stopErr
	}

	s.advance(ev.Time)
	logrus.Debugf("[tick %07d] Executing %s", s.clock.Now(), ev)
	s.execute(ev)

	if s.cfg.Debug {
		if err := s.CheckInvariants(); err != nil {
			panic(err.Error())
		}
	}
	return nil
}

func (s *Simulator) advance(t int64) {
	elapsed := s.clock.AdvanceTo(t)
	s.memory.TimePassed(elapsed)
	s.cpu.TimePassed(elapsed)
	s.io.TimePassed(elapsed)
	s.observer.TimePassed(elapsed, s.memory.Free())
}

func (s *Simulator) execute(ev *Event) {
	switch ev.Type {
	case NewProcessArrival:
		s.handleArrival(ev)
	case CpuQuantumExpired:
		s.handleQuantumExpired(ev)
	case ProcessFinished:
		s.handleProcessFinished(ev)
	case IORequested:
		s.handleIORequested(ev)
	case IOCompleted:
		s.handleIOCompleted(ev)
	default:
		s.violation("unknown event type %s", ev.Type)
	}
}

func (s *Simulator) handleArrival(ev *Event) {
	now := s.clock.Now()
	p := ev.Process
	if p == nil {
		p = s.factory.New(s.cfg.MemoryCapacity, now)
		s.schedule(NewProcessArrival, now+s.arrivals.Sample(s.arrivalRNG), nil)
	}
	if _, dup := s.processes[p.ID]; dup {
		s.violation("duplicate arrival of process %d at %d", p.ID, now)
		return
	}
	if err := s.memory.Insert(p); err != nil {
		s.violation("arrival at %d: %v", now, err)
		return
	}
	s.processes[p.ID] = p
	s.stats.processCreated()
	logrus.Debugf("<< Arrival: process %d (memory %d KB, cpu %d ms, io every %d ms)", p.ID, p.MemoryNeeded, p.CPUTimeNeeded, p.IOInterval)

	s.admitWaiting()
	s.dispatchCPU()
}

func (s *Simulator) handleQuantumExpired(ev *Event) {
	p, ok := s.onCPU(ev)
	if !ok {
		return
	}
	now := s.clock.Now()
	p.grantCPU(p.sinceLastTransition(now))
	s.releaseCPU()
	s.stats.forcedSwitch()
	if err := s.cpu.Enqueue(p, now); err != nil {
		s.violation("re-enqueue after quantum: %v", err)
	}
	s.dispatchCPU()
}

func (s *Simulator) handleProcessFinished(ev *Event) {
	p, ok := s.onCPU(ev)
	if !ok {
		return
	}
	now := s.clock.Now()
	p.grantCPU(p.sinceLastTransition(now))
	if p.CPUTimeRemaining != 0 {
		s.violation("process %d finished with %d ms of CPU time left", p.ID, p.CPUTimeRemaining)
	}
	s.releaseCPU()
	if err := s.move(p, StateFinished, now); err != nil {
		s.violation("finish: %v", err)
	}
	s.stats.processFinished(p, now)
	if err := s.memory.Release(p); err != nil {
		s.violation("finish: %v", err)
	}
	delete(s.processes, p.ID)
	logrus.Debugf(">> Finished: process %d after %d ms in system", p.ID, now-p.CreatedAt)

	s.admitWaiting()
	s.dispatchCPU()
}

func (s *Simulator) handleIORequested(ev *Event) {
	p, ok := s.onCPU(ev)
	if !ok {
		return
	}
	now := s.clock.Now()
	p.grantCPU(p.sinceLastTransition(now))
	p.resetIO()
	s.releaseCPU()
	if err := s.io.Enqueue(p, now); err != nil {
		s.violation("I/O request: %v", err)
	}
	s.dispatchIO()
	s.dispatchCPU()
}

func (s *Simulator) handleIOCompleted(ev *Event) {
	p := ev.Process
	if p == nil || s.io.Current() != p || p.State != StateInIO || p.burst != ev.burst {
		s.violation("stale %s", ev)
		return
	}
	now := s.clock.Now()
	s.io.Release()
	s.observer.SetIOActive(nil)
	s.stats.ioOperation()
	if err := s.cpu.Enqueue(p, now); err != nil {
		s.violation("return from I/O: %v", err)
	}
	s.dispatchIO()
	s.dispatchCPU()
}

// onCPU returns the event's process if it is the one currently running
// the turn the event was scheduled for.
func (s *Simulator) onCPU(ev *Event) (*Process, bool) {
	p := ev.Process
	if p == nil || s.cpu.Current() != p || p.State != StateInCPU || p.burst != ev.burst {
		s.violation("stale %s", ev)
		return nil, false
	}
	return p, true
}

// admitWaiting moves processes from the memory queue to the ready queue
// for as long as the head of the memory queue fits.
func (s *Simulator) admitWaiting() {
	now := s.clock.Now()
	for p := s.memory.AdmitNext(now); p != nil; p = s.memory.AdmitNext(now) {
		if err := s.cpu.Enqueue(p, now); err != nil {
			s.violation("admission: %v", err)
		}
	}
}

// dispatchCPU starts the next ready process on an idle CPU and schedules
// the event that ends its turn.
func (s *Simulator) dispatchCPU() {
	p := s.cpu.DispatchNext(s.clock.Now())
	if p == nil {
		return
	}
	kind, after := s.cpu.NextBurst(p)
	s.schedule(kind, s.clock.Now()+after, p)
	info := p.Info()
	s.observer.SetCPUActive(&info)
}

func (s *Simulator) releaseCPU() {
	s.cpu.Release()
	s.observer.SetCPUActive(nil)
}

// dispatchIO starts the next waiting process on an idle I/O device.
func (s *Simulator) dispatchIO() {
	p := s.io.DispatchNext(s.clock.Now())
	if p == nil {
		return
	}
	s.schedule(IOCompleted, s.clock.Now()+max(s.ioDuration(), 1), p)
	info := p.Info()
	s.observer.SetIOActive(&info)
}

func (s *Simulator) notifyTransition(t TransitionInfo) {
	s.observer.ProcessTransition(t)
}

// violation reports an event that correct scheduling should never produce.
// It is ignored outside debug mode.
func (s *Simulator) violation(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.cfg.Debug {
		panic(fmt.Sprintf("[tick %07d] invariant violated: %s", s.clock.Now(), msg))
	}
	logrus.Warnf("[tick %07d] ignoring: %s", s.clock.Now(), msg)
}

// StateCounts returns the number of live processes in each state.
func (s *Simulator) StateCounts() map[ProcessState]int {
	counts := make(map[ProcessState]int, len(LiveStates))
	for _, p := range s.processes {
		counts[p.State]++
	}
	return counts
}

// CheckInvariants verifies memory conservation, process conservation and
// the quantum bound at the current instant.
func (s *Simulator) CheckInvariants() error {
	m := s.memory
	if m.Free() < 0 || m.Free() > m.Capacity() {
		return fmt.Errorf("free memory %d outside [0, %d]", m.Free(), m.Capacity())
	}
	if m.Free()+m.Allocated() != m.Capacity() {
		return fmt.Errorf("memory leak: free %d + allocated %d != capacity %d", m.Free(), m.Allocated(), m.Capacity())
	}

	counts := s.StateCounts()
	live := int64(0)
	for _, st := range LiveStates {
		live += int64(counts[st])
	}
	if live != int64(len(s.processes)) {
		return fmt.Errorf("%d live processes but only %d in live states", len(s.processes), live)
	}
	if s.stats.ProcessesCreated != s.stats.ProcessesCompleted+live {
		return fmt.Errorf("process conservation: created %d != completed %d + live %d",
			s.stats.ProcessesCreated, s.stats.ProcessesCompleted, live)
	}

	expect := map[ProcessState]int{
		StateAwaitingMemory: m.QueueLen(),
		StateReadyQueue:     s.cpu.QueueLen(),
		StateIOQueue:        s.io.QueueLen(),
	}
	if s.cpu.Busy() {
		expect[StateInCPU] = 1
	}
	if s.io.Busy() {
		expect[StateInIO] = 1
	}
	for _, st := range LiveStates {
		if counts[st] != expect[st] {
			return fmt.Errorf("%d processes in %s, devices hold %d", counts[st], st, expect[st])
		}
	}

	if p := s.cpu.Current(); p != nil && p.sinceLastTransition(s.clock.Now()) > s.cpu.Quantum() {
		return fmt.Errorf("process %d has run %d ms, quantum is %d", p.ID, p.sinceLastTransition(s.clock.Now()), s.cpu.Quantum())
	}
	return nil
}
