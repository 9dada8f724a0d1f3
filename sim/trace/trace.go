// Package trace records process transitions and device occupancy during a
// simulation run, and persists them. It has no dependencies on sim/.
package trace

import "github.com/rs/xid"

// TraceLevel controls the verbosity of tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTransitions captures every process state transition.
	TraceLevelTransitions TraceLevel = "transitions"
	// TraceLevelOccupancy captures transitions plus CPU and I/O occupancy changes.
	TraceLevelOccupancy TraceLevel = "occupancy"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelTransitions: true,
	TraceLevelOccupancy:   true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during one simulation run.
type SimulationTrace struct {
	RunID       string // unique per trace, tags persisted rows
	Config      TraceConfig
	Transitions []TransitionRecord
	Occupancy   []OccupancyRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		RunID:       xid.New().String(),
		Config:      config,
		Transitions: make([]TransitionRecord, 0),
		Occupancy:   make([]OccupancyRecord, 0),
	}
}

// RecordsTransitions reports whether the configured level keeps transitions.
func (st *SimulationTrace) RecordsTransitions() bool {
	return st.Config.Level == TraceLevelTransitions || st.Config.Level == TraceLevelOccupancy
}

// RecordsOccupancy reports whether the configured level keeps occupancy changes.
func (st *SimulationTrace) RecordsOccupancy() bool {
	return st.Config.Level == TraceLevelOccupancy
}

// RecordTransition appends a transition record.
func (st *SimulationTrace) RecordTransition(record TransitionRecord) {
	st.Transitions = append(st.Transitions, record)
}

// RecordOccupancy appends an occupancy record.
func (st *SimulationTrace) RecordOccupancy(record OccupancyRecord) {
	st.Occupancy = append(st.Occupancy, record)
}
