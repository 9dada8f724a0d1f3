// Implements the ProcessQueue, the FIFO used by memory admission, the CPU
// ready queue and the I/O waiting queue.

package sim

import (
	"strings"
)

// ProcessQueue is a FIFO queue of processes waiting for a resource.
type ProcessQueue struct {
	queue []*Process
}

// Enqueue adds a process to the back of the queue.
func (pq *ProcessQueue) Enqueue(p *Process) {
	pq.queue = append(pq.queue, p)
}

// Dequeue removes and returns the process at the front, or nil if empty.
func (pq *ProcessQueue) Dequeue() *Process {
	if len(pq.queue) == 0 {
		return nil
	}
	p := pq.queue[0]
	pq.queue[0] = nil
	pq.queue = pq.queue[1:]
	return p
}

// Peek returns the process at the front without removing it.
// Returns nil if the queue is empty.
func (pq *ProcessQueue) Peek() *Process {
	if len(pq.queue) == 0 {
		return nil
	}
	return pq.queue[0]
}

// Len returns the number of processes in the queue.
func (pq *ProcessQueue) Len() int {
	return len(pq.queue)
}

// Items returns the queue contents in order.
// The returned slice is the queue's internal storage; callers MUST NOT modify it.
func (pq *ProcessQueue) Items() []*Process {
	return pq.queue
}

func (pq *ProcessQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, p := range pq.queue {
		sb.WriteString(p.String())
		if i < len(pq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
