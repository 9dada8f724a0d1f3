package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps every Config validation failure.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Minimum accepted parameter values.
const (
	MinMemoryCapacity   int64 = 400
	MinSimulationLength int64 = 1
	MinCPUQuantum       int64 = 1
)

// Config groups the parameters of one simulation run.
type Config struct {
	MemoryCapacity     int64   `yaml:"memory_capacity"`      // KB, >= 400
	CPUQuantum         int64   `yaml:"cpu_quantum"`          // ms, maximum uninterrupted CPU time per turn
	AvgIODuration      int64   `yaml:"avg_io_duration"`      // ms, mean length of an I/O operation
	SimulationLength   int64   `yaml:"simulation_length"`    // ms, >= 1
	AvgArrivalInterval int64   `yaml:"avg_arrival_interval"` // ms; 0 disables generated arrivals
	ArrivalProcess     string  `yaml:"arrival_process"`      // uniform (default), poisson, gamma or weibull
	ArrivalCV          float64 `yaml:"arrival_cv"`           // coefficient of variation for gamma and weibull
	Seed               int64   `yaml:"seed"`
	Debug              bool    `yaml:"debug"` // panic on stale events and invariant violations
}

// DefaultConfig returns the parameter set used when nothing else is given.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:     2048,
		CPUQuantum:         500,
		AvgIODuration:      225,
		SimulationLength:   250000,
		AvgArrivalInterval: 5000,
		ArrivalProcess:     IntervalUniform,
		ArrivalCV:          1.0,
		Seed:               42,
	}
}

// Validate checks every parameter against its accepted range.
func (c Config) Validate() error {
	if c.MemoryCapacity < MinMemoryCapacity {
		return fmt.Errorf("%w: memory capacity %d KB is below %d KB", ErrInvalidConfig, c.MemoryCapacity, MinMemoryCapacity)
	}
	if c.CPUQuantum < MinCPUQuantum {
		return fmt.Errorf("%w: cpu quantum must be at least %d ms, got %d", ErrInvalidConfig, MinCPUQuantum, c.CPUQuantum)
	}
	if c.AvgIODuration < 0 {
		return fmt.Errorf("%w: average I/O duration must not be negative, got %d", ErrInvalidConfig, c.AvgIODuration)
	}
	if c.SimulationLength < MinSimulationLength {
		return fmt.Errorf("%w: simulation length must be at least %d ms, got %d", ErrInvalidConfig, MinSimulationLength, c.SimulationLength)
	}
	if c.AvgArrivalInterval < 0 {
		return fmt.Errorf("%w: average arrival interval must not be negative, got %d", ErrInvalidConfig, c.AvgArrivalInterval)
	}
	if !IsValidIntervalProcess(c.ArrivalProcess) {
		return fmt.Errorf("%w: unknown arrival process %q", ErrInvalidConfig, c.ArrivalProcess)
	}
	if c.ArrivalCV < 0 {
		return fmt.Errorf("%w: arrival CV must not be negative, got %g", ErrInvalidConfig, c.ArrivalCV)
	}
	return nil
}
