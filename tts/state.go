package tts

// StateType represents the playback state shown to the user.
type StateType int

const (
	// StateIdle indicates nothing is queued or speaking.
	StateIdle StateType = iota
	// StateLoading indicates a session is waiting for its next sentence.
	StateLoading
	// StatePlaying indicates an utterance is being spoken.
	StatePlaying
	// StatePaused indicates the current utterance is paused.
	StatePaused
	// StateDisabled indicates generation or the voice failed.
	StateDisabled
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// CanToggle reports whether the play/pause control is enabled in s.
func (s StateType) CanToggle() bool {
	return s != StateLoading && s != StateDisabled
}

// StateMachine manages playback state transitions.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
	onExit      map[StateType]func()
	observers   []func(from, to StateType)
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:     {StateLoading, StatePlaying, StateDisabled},
			StateLoading:  {StatePlaying, StateIdle, StateDisabled},
			StatePlaying:  {StatePaused, StateIdle, StateLoading, StateDisabled},
			StatePaused:   {StatePlaying, StateIdle, StateDisabled},
			StateDisabled: {StateLoading},
		},
		onEnter: make(map[StateType]func()),
		onExit:  make(map[StateType]func()),
	}
}

// Can reports whether a transition to the given state is valid.
func (sm *StateMachine) Can(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			return true
		}
	}
	return false
}

// Transition attempts to transition to the specified state. Invalid
// transitions are ignored and reported as false.
func (sm *StateMachine) Transition(to StateType) bool {
	if !sm.Can(to) {
		return false
	}

	from := sm.current
	if exitFn, ok := sm.onExit[from]; ok && exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}
	for _, fn := range sm.observers {
		fn(from, to)
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state StateType, fn func()) {
	sm.onExit[state] = fn
}

// Observe registers a callback for every accepted transition.
func (sm *StateMachine) Observe(fn func(from, to StateType)) {
	sm.observers = append(sm.observers, fn)
}
