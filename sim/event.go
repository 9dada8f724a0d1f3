package sim

import (
	"container/heap"
	"errors"
	"fmt"
)

// ErrEmptyQueue is returned by PopEarliest when no events remain.
var ErrEmptyQueue = errors.New("event queue is empty")

// EventType identifies the transition an event triggers.
type EventType int

const (
	NewProcessArrival EventType = iota
	CpuQuantumExpired
	ProcessFinished
	IORequested
	IOCompleted
)

func (t EventType) String() string {
	switch t {
	case NewProcessArrival:
		return "NewProcessArrival"
	case CpuQuantumExpired:
		return "CpuQuantumExpired"
	case ProcessFinished:
		return "ProcessFinished"
	case IORequested:
		return "IORequested"
	case IOCompleted:
		return "IOCompleted"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is a pending transition scheduled at an absolute virtual time.
type Event struct {
	Type    EventType
	Time    int64    // Absolute virtual time (ms) at which the event fires
	Process *Process // Subject; nil for generated arrivals

	seq   uint64 // insertion order, breaks timestamp ties
	burst uint64 // device dispatch generation of Process when scheduled
}

func (e *Event) String() string {
	if e.Process == nil {
		return fmt.Sprintf("%s@%d", e.Type, e.Time)
	}
	return fmt.Sprintf("%s@%d(pid=%d)", e.Type, e.Time, e.Process.ID)
}

// EventQueue orders pending events by (Time, insertion sequence).
// Events sharing a timestamp come out in the order they went in.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// Insert adds ev to the queue and stamps its insertion sequence.
func (q *EventQueue) Insert(ev *Event) {
	ev.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.events, ev)
}

// PopEarliest removes and returns the event with the smallest ordering key.
func (q *EventQueue) PopEarliest() (*Event, error) {
	if q.IsEmpty() {
		return nil, ErrEmptyQueue
	}
	return heap.Pop(&q.events).(*Event), nil
}

// Peek returns the next event without removing it, or nil.
func (q *EventQueue) Peek() *Event {
	if q.IsEmpty() {
		return nil
	}
	return q.events[0]
}

func (q *EventQueue) IsEmpty() bool {
	return len(q.events) == 0
}

func (q *EventQueue) Len() int {
	return len(q.events)
}

// eventHeap implements heap.Interface.
// See https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}
