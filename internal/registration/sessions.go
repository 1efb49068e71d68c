package registration

import (
	"context"
	"strings"
	"sync"
)

// maxOpenSessions bounds the sessions that can still change state. Completed
// sessions are kept regardless: each one stands for a user created upstream.
const maxOpenSessions = 10000

// Sessions keeps one Session per device identifier, so a device that finished
// registration stays registered across requests.
type Sessions struct {
	workflow *Workflow

	mu       sync.Mutex
	byDevice map[string]*Session
}

// NewSessions builds an empty store on top of workflow.
func NewSessions(workflow *Workflow) *Sessions {
	return &Sessions{workflow: workflow, byDevice: make(map[string]*Session)}
}

// Submit runs the draft through the device's session.
func (s *Sessions) Submit(ctx context.Context, deviceID string, draft Draft) Outcome {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return s.workflow.Submit(ctx, deviceID, draft)
	}

	sess := s.session(deviceID)
	out := sess.Submit(ctx, draft)
	s.settle(deviceID, sess)
	return out
}

// Dismiss clears the failure banner of the device's session, if any.
func (s *Sessions) Dismiss(deviceID string) {
	deviceID = strings.TrimSpace(deviceID)
	s.mu.Lock()
	sess := s.byDevice[deviceID]
	s.mu.Unlock()
	if sess == nil {
		return
	}
	sess.Dismiss()
	s.settle(deviceID, sess)
}

// Completed returns the successful outcome for a registered device.
func (s *Sessions) Completed(deviceID string) (Outcome, bool) {
	s.mu.Lock()
	sess := s.byDevice[strings.TrimSpace(deviceID)]
	s.mu.Unlock()
	if sess == nil || sess.State() != StateSuccess {
		return Outcome{}, false
	}
	return sess.Last(), true
}

func (s *Sessions) session(deviceID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byDevice[deviceID]; ok {
		return sess
	}
	if len(s.byDevice) >= maxOpenSessions {
		s.evictOpenLocked()
	}
	sess := NewSession(s.workflow, deviceID)
	s.byDevice[deviceID] = sess
	return sess
}

// settle forgets sessions that returned to Editing; they hold nothing worth keeping.
func (s *Sessions) settle(deviceID string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byDevice[deviceID] == sess && sess.State() == StateEditing {
		delete(s.byDevice, deviceID)
	}
}

func (s *Sessions) evictOpenLocked() {
	for id, sess := range s.byDevice {
		if state := sess.State(); state == StateFailed || state == StateEditing {
			delete(s.byDevice, id)
			return
		}
	}
}
