// Package sim provides the discrete-event engine that moves processes
// through memory, a round-robin CPU and a FIFO I/O device.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - process.go: Process lifecycle (awaiting memory → ready → cpu ⇄ io → finished)
//   - event.go: Event types and the (time, insertion order) event queue
//   - simulator.go: The event loop and the per-event transition handlers
//
// # Architecture
//
// The devices each own one FIFO queue:
//   - memory.go: head-of-line admission against a fixed capacity
//   - cpu.go: round-robin with a fixed quantum
//   - io.go: run-to-completion I/O
//
// Devices are told about every clock movement so statistics.go can keep idle
// and active time and queue length integrals exact; report.go turns the
// totals into the end-of-run report.
//
// Observers (observer.go) receive snapshots of occupancy and transitions and
// cannot change the run. sim/trace records them and persists them to SQLite.
package sim
