package core

// SessionState is the lifecycle position of a connection.
type SessionState int

const (
	// StateUnauthenticated is the state of a freshly accepted connection.
	StateUnauthenticated SessionState = iota
	// StateAuthenticated is entered on the first auth envelope and never left except by closing.
	StateAuthenticated
	// StateClosed is terminal.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the per-connection state the hub keeps from accept to close.
type Session struct {
	ID    string
	Conn  Conn
	state SessionState
}

func newSession(id string, conn Conn) *Session {
	return &Session{ID: id, Conn: conn, state: StateUnauthenticated}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Authenticated reports whether gated envelopes may be processed.
func (s *Session) Authenticated() bool {
	return s.state == StateAuthenticated
}

// authenticate moves an open session to StateAuthenticated. Repeating it is a no-op.
func (s *Session) authenticate() {
	if s.state == StateUnauthenticated {
		s.state = StateAuthenticated
	}
}

// close moves the session to StateClosed and reports whether it was open.
func (s *Session) close() bool {
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	return true
}
