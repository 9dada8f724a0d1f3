package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/procsim/procsim/sim/trace"
)

// injectOnlyConfig returns a config with generated arrivals disabled, so
// tests control every process.
func injectOnlyConfig() Config {
	cfg := DefaultConfig()
	cfg.MemoryCapacity = 1000
	cfg.AvgArrivalInterval = 0
	return cfg
}

func newTestSimulator(t *testing.T, cfg Config, opts ...Option) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, opts...)
	require.NoError(t, err)
	return s
}

// drain steps until the run ends and returns the terminating error.
func drain(s *Simulator) error {
	for {
		if err := s.Step(); err != nil {
			return err
		}
	}
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryCapacity = 100

	s, err := NewSimulator(cfg)

	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestSimulator_SingleShortProcess(t *testing.T) {
	// GIVEN a process needing 50 ms of CPU and I/O every 100 ms
	ctrl := gomock.NewController(t)
	obs := NewMockObserver(ctrl)
	obs.EXPECT().TimePassed(gomock.Any(), gomock.Any()).AnyTimes()
	obs.EXPECT().SetCPUActive(gomock.Not(gomock.Nil())).Times(1)
	obs.EXPECT().SetCPUActive(gomock.Nil()).Times(1)
	obs.EXPECT().ProcessTransition(gomock.Any()).Times(3)

	s := newTestSimulator(t, injectOnlyConfig(), WithObserver(obs))
	p, err := s.InjectProcess(200, 50, 100, 0)
	require.NoError(t, err)

	// WHEN the simulation runs out of events
	err = drain(s)

	// THEN the process finished before its first I/O and memory is back
	assert.True(t, errors.Is(err, ErrSimulationExhausted))
	assert.Equal(t, int64(50), s.Clock())
	assert.Equal(t, StateFinished, p.State)
	assert.Equal(t, int64(1), s.Stats().ProcessesCompleted)
	assert.Equal(t, int64(1000), s.Memory().Free())
	assert.Nil(t, s.Process(p.ID))
	assert.Zero(t, s.Stats().IOOperations)

	// THEN further steps keep reporting the same end
	assert.True(t, errors.Is(s.Step(), ErrSimulationExhausted))
}

func TestSimulator_MemoryHeadOfLineBlocking(t *testing.T) {
	// GIVEN 1000 KB of memory and arrivals of 600, 600 and 100 KB at t=0
	s := newTestSimulator(t, injectOnlyConfig())
	a, err := s.InjectProcess(600, 100, 0, 0)
	require.NoError(t, err)
	b, err := s.InjectProcess(600, 100, 0, 0)
	require.NoError(t, err)
	c, err := s.InjectProcess(100, 100, 0, 0)
	require.NoError(t, err)

	// WHEN the three arrivals are processed
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Step())
	}

	// THEN the small process waits behind the second large one
	assert.Equal(t, StateInCPU, a.State)
	assert.Equal(t, StateAwaitingMemory, b.State)
	assert.Equal(t, StateAwaitingMemory, c.State)
	assert.Equal(t, []*Process{b, c}, s.Memory().Queue())

	// WHEN the run completes
	require.True(t, errors.Is(drain(s), ErrSimulationExhausted))

	// THEN both were admitted when the first finished and ran in order
	assert.Equal(t, int64(300), s.Clock())
	assert.Equal(t, int64(100), c.TimeWaitingForMemory)
	assert.Equal(t, int64(100), c.TimeInReadyQueue)
	r := s.Report()
	assert.Equal(t, int64(3), r.ProcessesCompleted)
	assert.Equal(t, 2, r.LargestMemoryQueue)
}

func TestSimulator_RoundRobinQuantum(t *testing.T) {
	// GIVEN a 10 ms quantum and a CPU-only process needing 25 ms
	cfg := injectOnlyConfig()
	cfg.CPUQuantum = 10
	s := newTestSimulator(t, cfg)
	p, err := s.InjectProcess(200, 25, 0, 0)
	require.NoError(t, err)

	// WHEN it runs to completion
	require.True(t, errors.Is(drain(s), ErrSimulationExhausted))

	// THEN it was preempted at 10 and 20 and finished at 25
	assert.Equal(t, int64(25), s.Clock())
	assert.Equal(t, int64(2), s.Stats().ForcedSwitches)
	assert.Equal(t, int64(3), p.TimesInReadyQueue)
	assert.Equal(t, int64(25), p.TimeInCPU)
	assert.Zero(t, p.TimeInReadyQueue)
}

func TestSimulator_RoundRobinSharesCPU(t *testing.T) {
	// GIVEN two CPU-only processes of 15 ms under a 10 ms quantum
	cfg := injectOnlyConfig()
	cfg.CPUQuantum = 10
	s := newTestSimulator(t, cfg)
	a, _ := s.InjectProcess(100, 15, 0, 0)
	b, _ := s.InjectProcess(100, 15, 0, 0)

	require.True(t, errors.Is(drain(s), ErrSimulationExhausted))

	// THEN they alternate: a 0-10, b 10-20, a 20-25, b 25-30
	assert.Equal(t, int64(30), s.Clock())
	assert.Equal(t, int64(10), a.TimeInReadyQueue)
	assert.Equal(t, int64(15), b.TimeInReadyQueue)
	assert.Equal(t, int64(2), s.Stats().ForcedSwitches)
}

func TestSimulator_IOCycle(t *testing.T) {
	// GIVEN a process needing 100 ms of CPU with I/O every 30 ms, each I/O taking 20 ms
	s := newTestSimulator(t, injectOnlyConfig(), WithIODuration(func() int64 { return 20 }))
	p, err := s.InjectProcess(200, 100, 30, 0)
	require.NoError(t, err)

	// WHEN it runs to completion
	require.True(t, errors.Is(drain(s), ErrSimulationExhausted))

	// THEN it went to I/O at 30, 80 and 130 and finished at 160
	assert.Equal(t, int64(160), s.Clock())
	assert.Equal(t, int64(3), s.Stats().IOOperations)
	assert.Equal(t, int64(3), p.TimesInIOQueue)
	assert.Equal(t, int64(4), p.TimesInReadyQueue)
	assert.Equal(t, int64(100), p.TimeInCPU)
	assert.Equal(t, int64(60), p.TimeInIO)

	r := s.Report()
	assert.Equal(t, int64(100), r.CPUActiveTime)
	assert.Equal(t, int64(60), r.CPUIdleTime)
	assert.Equal(t, int64(60), r.IOActiveTime)
	assert.Equal(t, int64(100), r.IOIdleTime)
}

func TestSimulator_FinishWinsTieWithIO(t *testing.T) {
	s := newTestSimulator(t, injectOnlyConfig())
	_, err := s.InjectProcess(200, 30, 30, 0)
	require.NoError(t, err)

	require.True(t, errors.Is(drain(s), ErrSimulationExhausted))

	assert.Equal(t, int64(30), s.Clock())
	assert.Zero(t, s.Stats().IOOperations)
	assert.Equal(t, int64(1), s.Stats().ProcessesCompleted)
}

func TestSimulator_WindowClosesBeforeFinish(t *testing.T) {
	// GIVEN a 30 ms window and a process needing 50 ms
	cfg := injectOnlyConfig()
	cfg.SimulationLength = 30
	s := newTestSimulator(t, cfg)
	p, _ := s.InjectProcess(200, 50, 0, 0)

	// WHEN the run ends
	err := drain(s)

	// THEN the clock stops at the window and the process is still running
	assert.True(t, errors.Is(err, ErrWindowClosed))
	assert.Equal(t, int64(30), s.Clock())
	assert.Equal(t, StateInCPU, p.State)
	assert.Equal(t, int64(30), s.Report().CPUActiveTime)
	assert.Zero(t, s.Report().ProcessesCompleted)
}

func TestSimulator_InjectProcess_Rejects(t *testing.T) {
	s := newTestSimulator(t, injectOnlyConfig())
	_, _ = s.InjectProcess(100, 10, 0, 5)
	require.NoError(t, s.Step())

	_, err := s.InjectProcess(100, 10, 0, 1)
	assert.Error(t, err, "arrival in the past")
	_, err = s.InjectProcess(1001, 10, 0, 10)
	assert.Error(t, err, "more memory than capacity")
	_, err = s.InjectProcess(100, 0, 0, 10)
	assert.Error(t, err, "no CPU demand")
}

func TestSimulator_StaleEventIgnored(t *testing.T) {
	// GIVEN a running process and a quantum event left over from an earlier turn
	s := newTestSimulator(t, injectOnlyConfig())
	p, _ := s.InjectProcess(200, 50, 0, 0)
	require.NoError(t, s.Step())
	require.Equal(t, StateInCPU, p.State)
	s.events.Insert(&Event{Type: CpuQuantumExpired, Time: 5, Process: p, burst: p.burst - 1})

	// WHEN the stale event fires
	require.NoError(t, s.Step())

	// THEN it changes nothing and the process still finishes on time
	assert.Equal(t, StateInCPU, p.State)
	assert.Zero(t, s.Stats().ForcedSwitches)
	require.True(t, errors.Is(drain(s), ErrSimulationExhausted))
	assert.Equal(t, int64(50), s.Clock())
}

func TestSimulator_StaleEventPanicsInDebug(t *testing.T) {
	cfg := injectOnlyConfig()
	cfg.Debug = true
	s := newTestSimulator(t, cfg)
	p, _ := s.InjectProcess(200, 50, 0, 0)
	require.NoError(t, s.Step())
	s.events.Insert(&Event{Type: IOCompleted, Time: 5, Process: p, burst: p.burst})

	assert.Panics(t, func() { _ = s.Step() })
}

func TestSimulator_InvariantsHoldAcrossSeeds(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		cfg := DefaultConfig()
		cfg.Seed = seed
		cfg.SimulationLength = 100000
		cfg.AvgArrivalInterval = 1000
		cfg.Debug = true
		s := newTestSimulator(t, cfg)

		var r *Report
		require.NotPanics(t, func() { r = s.Run() }, "seed %d", seed)

		assert.Equal(t, cfg.SimulationLength, r.ElapsedTime, "seed %d", seed)
		assert.Equal(t, r.ElapsedTime, r.CPUActiveTime+r.CPUIdleTime, "seed %d", seed)
		assert.Equal(t, r.ElapsedTime, r.IOActiveTime+r.IOIdleTime, "seed %d", seed)
		assert.Equal(t, r.ProcessesCreated, r.ProcessesCompleted+int64(len(s.Processes())), "seed %d", seed)
		assert.LessOrEqual(t, r.CPUUtilization, 100.0)
		assert.NoError(t, s.CheckInvariants())
	}
}

func TestSimulator_BurstyArrivals(t *testing.T) {
	for _, process := range []string{IntervalPoisson, IntervalGamma, IntervalWeibull} {
		cfg := DefaultConfig()
		cfg.SimulationLength = 60000
		cfg.AvgArrivalInterval = 1000
		cfg.ArrivalProcess = process
		cfg.ArrivalCV = 2.0
		cfg.Debug = true
		s := newTestSimulator(t, cfg)

		var r *Report
		require.NotPanics(t, func() { r = s.Run() }, process)

		assert.NotZero(t, r.ProcessesCreated, process)
		assert.Equal(t, r.ProcessesCreated, r.ProcessesCompleted+int64(len(s.Processes())), process)
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimulationLength = 60000
	cfg.AvgArrivalInterval = 800

	r1 := newTestSimulator(t, cfg).Run()
	r2 := newTestSimulator(t, cfg).Run()

	assert.Equal(t, r1, r2)
	assert.NotZero(t, r1.ProcessesCreated)
}

func TestSimulator_StateCounts(t *testing.T) {
	s := newTestSimulator(t, injectOnlyConfig())
	_, _ = s.InjectProcess(600, 100, 0, 0)
	_, _ = s.InjectProcess(300, 100, 0, 0)
	_, _ = s.InjectProcess(600, 100, 0, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Step())
	}

	counts := s.StateCounts()

	assert.Equal(t, 1, counts[StateInCPU])
	assert.Equal(t, 1, counts[StateReadyQueue])
	assert.Equal(t, 1, counts[StateAwaitingMemory])
	assert.NoError(t, s.CheckInvariants())
}

func TestSimulator_TraceObserver(t *testing.T) {
	// GIVEN an occupancy-level trace attached to the run
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelOccupancy})
	s := newTestSimulator(t, injectOnlyConfig(), WithObserver(NewTraceObserver(st)))
	p, _ := s.InjectProcess(200, 50, 0, 0)

	// WHEN the process runs to completion
	require.True(t, errors.Is(drain(s), ErrSimulationExhausted))

	// THEN every edge and every CPU occupancy change was recorded
	require.Len(t, st.Transitions, 3)
	assert.Equal(t, trace.TransitionRecord{ProcessID: p.ID, From: "in_cpu", To: "finished", Clock: 50}, st.Transitions[2])
	assert.Equal(t, []trace.OccupancyRecord{
		{Device: trace.DeviceCPU, ProcessID: p.ID, Clock: 0},
		{Device: trace.DeviceCPU, ProcessID: 0, Clock: 50},
	}, st.Occupancy)

	summary := trace.Summarize(st)
	assert.Equal(t, 1, summary.DistinctProcesses)
	assert.Equal(t, 1, summary.CPUBusyPeriods)
}
