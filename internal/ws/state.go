package ws

// State is where a Client is in its connection lifecycle.
type State int

const (
	// StateIdle means no socket and nothing scheduled, either because there
	// is no user or because the client was torn down.
	StateIdle State = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateOpen means the socket is open and register has been queued.
	StateOpen

	// StateClosing means a deliberate close is in progress.
	StateClosing

	// StateReconnectScheduled means the socket was lost and a retry timer is
	// pending.
	StateReconnectScheduled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateReconnectScheduled:
		return "reconnect-scheduled"
	default:
		return "unknown"
	}
}

// StateEvent describes one transition.
type StateEvent struct {
	Old State
	New State
	Err error // what caused the transition, if anything went wrong
}
