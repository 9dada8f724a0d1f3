package trace

// Devices reported in OccupancyRecord.Device.
const (
	DeviceCPU = "cpu"
	DeviceIO  = "io"
)

// TransitionRecord captures one lifecycle edge taken by a process.
type TransitionRecord struct {
	ProcessID int64
	From      string
	To        string
	Clock     int64
}

// Edge returns the "from->to" key used by TraceSummary.Edges.
func (r TransitionRecord) Edge() string {
	return EdgeKey(r.From, r.To)
}

// EdgeKey builds the "from->to" key for a transition.
func EdgeKey(from, to string) string {
	return from + "->" + to
}

// OccupancyRecord captures a change of a device's occupant.
type OccupancyRecord struct {
	Device    string
	ProcessID int64 // 0 when the device went idle
	Clock     int64
}
