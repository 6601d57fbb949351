package loadtest

// State is the phase of a run.
type State int32

const (
	Idle State = iota
	Generating
	// GenerationFailed: no user set, nothing dispatched.
	GenerationFailed
	BootstrappingUsers
	BootstrapFailed
	RunningUserScenarios
	Aggregating
	AllSucceeded
	SomeFailed
)

var stateNames = map[State]string{
	Idle:                 "idle",
	Generating:           "generating",
	GenerationFailed:     "generation-failed",
	BootstrappingUsers:   "bootstrapping-users",
	BootstrapFailed:      "bootstrap-failed",
	RunningUserScenarios: "running-user-scenarios",
	Aggregating:          "aggregating",
	AllSucceeded:         "all-succeeded",
	SomeFailed:           "some-failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case GenerationFailed, BootstrapFailed, AllSucceeded, SomeFailed:
		return true
	default:
		return false
	}
}
