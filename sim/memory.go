package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrMemoryNotHeld is returned when releasing memory for a process that does
// not currently hold any.
var ErrMemoryNotHeld = errors.New("process does not hold memory")

// Memory is a fixed-capacity resource guarded by a FIFO admission queue.
// Admission is strictly head-of-line: a small request behind a large one waits.
type Memory struct {
	transitionNotifier

	capacity int64
	free     int64
	queue    ProcessQueue
	held     map[int64]int64 // process ID -> KB held by admitted, unreleased processes
	stats    *Statistics
}

// NewMemory creates a memory device of the given capacity (KB).
func NewMemory(capacity int64, stats *Statistics) *Memory {
	return &Memory{
		capacity: capacity,
		free:     capacity,
		held:     make(map[int64]int64),
		stats:    stats,
	}
}

func (m *Memory) Capacity() int64 { return m.capacity }
func (m *Memory) Free() int64     { return m.free }
func (m *Memory) QueueLen() int   { return m.queue.Len() }

// Queue returns the processes waiting for admission, head first.
func (m *Memory) Queue() []*Process {
	return m.queue.Items()
}

// Allocated sums the memory held by admitted, unreleased processes.
func (m *Memory) Allocated() int64 {
	var total int64
	for _, kb := range m.held {
		total += kb
	}
	return total
}

// Insert places a newly arrived process at the back of the admission queue.
func (m *Memory) Insert(p *Process) error {
	if p.State != StateAwaitingMemory {
		return fmt.Errorf("%w: process %d is %s, not %s", ErrIllegalTransition, p.ID, p.State, StateAwaitingMemory)
	}
	m.queue.Enqueue(p)
	return nil
}

// AdmitNext admits the head of the queue if it fits in free memory and
// returns it in the ready-queue state. Returns nil, leaving the queue
// untouched, when the queue is empty or the head does not fit.
func (m *Memory) AdmitNext(now int64) *Process {
	head := m.queue.Peek()
	if head == nil {
		return nil
	}
	if head.MemoryNeeded > m.free {
		logrus.Debugf("memory: process %d needs %d KB, %d KB free; queue blocked", head.ID, head.MemoryNeeded, m.free)
		return nil
	}

	m.queue.Dequeue()
	m.free -= head.MemoryNeeded
	m.held[head.ID] = head.MemoryNeeded
	if err := m.move(head, StateReadyQueue, now); err != nil {
		panic(fmt.Sprintf("memory queue held process outside %s: %v", StateAwaitingMemory, err))
	}
	m.stats.processAdmitted()
	return head
}

// Release returns the memory held by p. It must be called once per admitted process.
func (m *Memory) Release(p *Process) error {
	kb, ok := m.held[p.ID]
	if !ok {
		return fmt.Errorf("%w: process %d", ErrMemoryNotHeld, p.ID)
	}
	delete(m.held, p.ID)
	m.free += kb
	return nil
}

// TimePassed accumulates the memory queue length over the elapsed interval.
func (m *Memory) TimePassed(elapsed int64) {
	m.stats.MemoryQueue.observe(m.queue.Len(), elapsed)
}
