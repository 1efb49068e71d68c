package registration

import (
	"context"
	"errors"
	"testing"
)

func TestSessionFailedReturnsToEditing(t *testing.T) {
	v := &fakeValidator{result: ValidationResult{IsValid: false, Message: "expired"}}
	p := &fakeProvisioner{}
	wf, _, _ := newTestWorkflow(v, p)
	s := NewSession(wf, "dev-42")

	out := s.Submit(context.Background(), validDraft())
	if out.State != StateFailed || out.Message != "expired" {
		t.Fatalf("expected Failed(expired), got %+v", out)
	}
	if s.State() != StateFailed {
		t.Fatalf("expected session failed, got %s", s.State())
	}

	s.Dismiss()
	if s.State() != StateEditing {
		t.Fatalf("expected editing after dismiss, got %s", s.State())
	}

	v.result = ValidationResult{IsValid: true}
	out = s.Submit(context.Background(), validDraft())
	if out.State != StateSuccess {
		t.Fatalf("expected success on resubmit, got %+v", out)
	}
}

func TestSessionSuccessIsTerminal(t *testing.T) {
	v := &fakeValidator{result: ValidationResult{IsValid: true}}
	p := &fakeProvisioner{}
	wf, _, _ := newTestWorkflow(v, p)
	s := NewSession(wf, "dev-42")

	if out := s.Submit(context.Background(), validDraft()); out.State != StateSuccess {
		t.Fatalf("expected success, got %+v", out)
	}
	out := s.Submit(context.Background(), validDraft())
	if !errors.Is(out.Err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", out.Err)
	}
	if out.State != StateSuccess {
		t.Fatalf("expected state to stay success, got %s", out.State)
	}
	if len(p.calls) != 1 {
		t.Fatalf("expected one provisioning call, got %d", len(p.calls))
	}
}

func TestSessionRejectsSubmitWhileSubmitting(t *testing.T) {
	v := &fakeValidator{result: ValidationResult{IsValid: true}, block: make(chan struct{})}
	p := &fakeProvisioner{}
	wf, _, _ := newTestWorkflow(v, p)
	s := NewSession(wf, "dev-42")

	done := make(chan Outcome, 1)
	go func() { done <- s.Submit(context.Background(), validDraft()) }()

	for s.State() != StateSubmitting {
		select {
		case out := <-done:
			t.Fatalf("submit finished early: %+v", out)
		default:
		}
	}

	out := s.Submit(context.Background(), validDraft())
	if out.Kind != KindInProgress || !errors.Is(out.Err, ErrSubmissionInProgress) {
		t.Fatalf("expected in progress, got %+v", out)
	}

	close(v.block)
	if first := <-done; first.State != StateSuccess {
		t.Fatalf("expected first submit to succeed, got %+v", first)
	}
}

func TestSessionInvalidDraftStaysEditing(t *testing.T) {
	v := &fakeValidator{result: ValidationResult{IsValid: true}}
	p := &fakeProvisioner{}
	wf, _, _ := newTestWorkflow(v, p)
	s := NewSession(wf, "dev-42")

	draft := validDraft()
	draft.Password = "short"
	out := s.Submit(context.Background(), draft)
	if out.State != StateEditing || out.Kind != KindValidation {
		t.Fatalf("expected editing with field errors, got %+v", out)
	}
	if s.State() != StateEditing {
		t.Fatalf("expected editing, got %s", s.State())
	}
	if len(v.calls) != 0 {
		t.Fatalf("no device check expected for invalid draft")
	}
}
