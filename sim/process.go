// Defines the Process struct that models a single workload moving through
// memory, the CPU and the I/O device, plus the factory that creates them.

package sim

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrIllegalTransition is returned when a process is asked to take an edge
// that its lifecycle state machine does not have.
var ErrIllegalTransition = errors.New("illegal process state transition")

// ProcessState represents the lifecycle state of a process.
type ProcessState string

const (
	StateAwaitingMemory ProcessState = "awaiting_memory"
	StateReadyQueue     ProcessState = "ready_queue"
	StateInCPU          ProcessState = "in_cpu"
	StateIOQueue        ProcessState = "io_queue"
	StateInIO           ProcessState = "in_io"
	StateFinished       ProcessState = "finished"
)

// LiveStates lists every state a process can occupy before it finishes.
var LiveStates = []ProcessState{
	StateAwaitingMemory,
	StateReadyQueue,
	StateInCPU,
	StateIOQueue,
	StateInIO,
}

var validTransitions = map[ProcessState][]ProcessState{
	StateAwaitingMemory: {StateReadyQueue},
	StateReadyQueue:     {StateInCPU},
	StateInCPU:          {StateReadyQueue, StateIOQueue, StateFinished},
	StateIOQueue:        {StateInIO},
	StateInIO:           {StateReadyQueue},
}

// Process models a single process's lifecycle in the simulation.
type Process struct {
	ID int64 // Unique, assigned by ProcessFactory, never reused

	MemoryNeeded     int64 // KB, fixed at creation
	CPUTimeNeeded    int64 // Total CPU time (ms) the process needs
	CPUTimeRemaining int64 // Decreases as CPU time is granted; 0 only at completion
	IOInterval       int64 // CPU time between I/O requests; <= 0 never requests I/O
	TimeToNextIO     int64 // CPU time left until the next I/O request

	State     ProcessState
	CreatedAt int64

	TimeWaitingForMemory int64
	TimeInReadyQueue     int64
	TimeInCPU            int64
	TimeWaitingForIO     int64
	TimeInIO             int64

	TimesInReadyQueue int64 // Number of times placed in the CPU ready queue
	TimesInIOQueue    int64 // Number of times placed in the I/O queue

	lastEventTime int64
	burst         uint64 // bumped on every device dispatch; stale events carry an old value
}

// ProcessInfo is a read-only snapshot of a process handed to observers.
type ProcessInfo struct {
	ID               int64
	MemoryNeeded     int64
	CPUTimeRemaining int64
	State            ProcessState
}

// TransitionInfo describes one lifecycle edge taken by a process.
type TransitionInfo struct {
	ProcessID int64
	From      ProcessState
	To        ProcessState
	Time      int64
}

func (p *Process) String() string {
	return fmt.Sprintf("Process: (ID: %d, State: %s, Memory: %d, CPURemaining: %d, NextIO: %d)",
		p.ID, p.State, p.MemoryNeeded, p.CPUTimeRemaining, p.TimeToNextIO)
}

// Info returns a snapshot of the process.
func (p *Process) Info() ProcessInfo {
	return ProcessInfo{
		ID:               p.ID,
		MemoryNeeded:     p.MemoryNeeded,
		CPUTimeRemaining: p.CPUTimeRemaining,
		State:            p.State,
	}
}

// PerformsIO reports whether the process ever asks for the I/O device.
func (p *Process) PerformsIO() bool {
	return p.IOInterval > 0
}

// TimeInSystem sums the per-state counters, i.e. the time accounted since creation.
func (p *Process) TimeInSystem() int64 {
	return p.TimeWaitingForMemory + p.TimeInReadyQueue + p.TimeInCPU + p.TimeWaitingForIO + p.TimeInIO
}

// transition moves the process to state `to` at time now, charging the time
// since its previous transition to the state it is leaving.
func (p *Process) transition(to ProcessState, now int64) (TransitionInfo, error) {
	if !canTransition(p.State, to) {
		return TransitionInfo{}, fmt.Errorf("%w: process %d %s -> %s", ErrIllegalTransition, p.ID, p.State, to)
	}

	elapsed := now - p.lastEventTime
	switch p.State {
	case StateAwaitingMemory:
		p.TimeWaitingForMemory += elapsed
	case StateReadyQueue:
		p.TimeInReadyQueue += elapsed
	case StateInCPU:
		p.TimeInCPU += elapsed
	case StateIOQueue:
		p.TimeWaitingForIO += elapsed
	case StateInIO:
		p.TimeInIO += elapsed
	}

	switch to {
	case StateReadyQueue:
		p.TimesInReadyQueue++
	case StateIOQueue:
		p.TimesInIOQueue++
	case StateInCPU, StateInIO:
		p.burst++
	}

	info := TransitionInfo{ProcessID: p.ID, From: p.State, To: to, Time: now}
	p.State = to
	p.lastEventTime = now
	return info, nil
}

func canTransition(from, to ProcessState) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// sinceLastTransition is the time spent in the current state so far.
func (p *Process) sinceLastTransition(now int64) int64 {
	return now - p.lastEventTime
}

// grantCPU charges d ms of CPU service against the remaining need and the
// I/O countdown. The remaining need never drops below zero.
func (p *Process) grantCPU(d int64) {
	d = min(d, p.CPUTimeRemaining)
	p.CPUTimeRemaining -= d
	if p.PerformsIO() {
		p.TimeToNextIO = max(p.TimeToNextIO-d, 0)
	}
}

// resetIO restarts the countdown to the next I/O request.
func (p *Process) resetIO() {
	p.TimeToNextIO = p.IOInterval
}

// ProcessFactory creates processes with unique, increasing IDs.
// One factory lives per simulation run.
type ProcessFactory struct {
	nextID int64
	rng    *rand.Rand
}

// NewProcessFactory creates a factory drawing random demands from rng.
func NewProcessFactory(rng *rand.Rand) *ProcessFactory {
	return &ProcessFactory{nextID: 1, rng: rng}
}

// New creates a process with randomly drawn demands:
//   - memory in [100, memoryCapacity/4) KB
//   - CPU time in [100, 10000) ms
//   - I/O interval between 1% and 25% of its CPU time
func (f *ProcessFactory) New(memoryCapacity, now int64) *Process {
	memoryNeeded := int64(100)
	if span := memoryCapacity/4 - 100; span > 0 {
		memoryNeeded += f.rng.Int63n(span)
	}
	cpuTimeNeeded := 100 + f.rng.Int63n(9900)
	ioInterval := max((1+f.rng.Int63n(25))*cpuTimeNeeded/100, 1)
	return f.NewWithDemands(memoryNeeded, cpuTimeNeeded, ioInterval, now)
}

// NewWithDemands creates a process with explicit demands, created at now.
func (f *ProcessFactory) NewWithDemands(memoryNeeded, cpuTimeNeeded, ioInterval, now int64) *Process {
	p := &Process{
		ID:               f.nextID,
		MemoryNeeded:     memoryNeeded,
		CPUTimeNeeded:    cpuTimeNeeded,
		CPUTimeRemaining: cpuTimeNeeded,
		IOInterval:       ioInterval,
		State:            StateAwaitingMemory,
		CreatedAt:        now,
		lastEventTime:    now,
	}
	if p.PerformsIO() {
		p.TimeToNextIO = ioInterval
	}
	f.nextID++
	return p
}
