package pipeline

// State tracks a job's progress through the transform pipeline.
type State string

const (
	StateReceived    State = "received"
	StatePersisted   State = "persisted"
	StateProbed      State = "probed"
	StateTransformed State = "transformed"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s State) String() string {
	return string(s)
}
