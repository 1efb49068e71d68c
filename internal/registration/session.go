package registration

import (
	"context"
	"sync"
)

// Session tracks one draft through the state machine for a single device
// identifier. Failed returns to Editing on the next submit or on Dismiss;
// Success is terminal.
type Session struct {
	workflow *Workflow
	deviceID string

	mu    sync.Mutex
	state State
	last  Outcome
}

// NewSession starts a session in Editing.
func NewSession(workflow *Workflow, deviceID string) *Session {
	return &Session{workflow: workflow, deviceID: deviceID, state: StateEditing}
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the outcome of the most recent submit.
func (s *Session) Last() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Dismiss clears a failure banner and returns the session to Editing.
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFailed {
		s.state = StateEditing
		s.last = Outcome{State: StateEditing}
	}
}

// Submit runs the draft through the workflow unless a submission is already
// running or the session has succeeded.
func (s *Session) Submit(ctx context.Context, draft Draft) Outcome {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return Outcome{State: StateSubmitting, Kind: KindInProgress, Message: "Registration is already being processed", Err: ErrSubmissionInProgress}
	case StateSuccess:
		out := s.last
		s.mu.Unlock()
		out.Kind = KindAlreadyRegistered
		out.Message = AlreadyRegisteredMessage
		out.Err = ErrAlreadyRegistered
		return out
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	out := s.workflow.Submit(ctx, s.deviceID, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch out.State {
	case StateSubmitting:
		// another replica or session holds the device lock
		s.state = StateEditing
	default:
		s.state = out.State
	}
	s.last = out
	return out
}
