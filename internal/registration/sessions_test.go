package registration

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
)

func TestSessionsSuccessIsTerminalPerDevice(t *testing.T) {
	v := &fakeValidator{result: ValidationResult{IsValid: true}}
	p := &fakeProvisioner{}
	wf, _, _ := newTestWorkflow(v, p)
	sessions := NewSessions(wf)

	if out := sessions.Submit(context.Background(), "dev-42", validDraft()); out.State != StateSuccess {
		t.Fatalf("expected success, got %+v", out)
	}

	out := sessions.Submit(context.Background(), " dev-42 ", validDraft())
	if out.Kind != KindAlreadyRegistered || !errors.Is(out.Err, ErrAlreadyRegistered) {
		t.Fatalf("expected already registered, got %+v", out)
	}
	if StatusCode(out) != http.StatusConflict {
		t.Fatalf("expected 409, got %d", StatusCode(out))
	}
	if len(p.calls) != 1 {
		t.Fatalf("expected one provisioning call, got %d", len(p.calls))
	}

	done, ok := sessions.Completed("dev-42")
	if !ok || done.User.Username != "alee" {
		t.Fatalf("expected completed outcome, got %+v %v", done, ok)
	}

	if out := sessions.Submit(context.Background(), "dev-43", validDraft()); out.State != StateSuccess {
		t.Fatalf("other devices are unaffected, got %+v", out)
	}
}

func TestSessionsDismissClearsFailure(t *testing.T) {
	v := &fakeValidator{result: ValidationResult{IsValid: false, Message: "expired"}}
	p := &fakeProvisioner{}
	wf, _, _ := newTestWorkflow(v, p)
	sessions := NewSessions(wf)

	if out := sessions.Submit(context.Background(), "dev-42", validDraft()); out.State != StateFailed {
		t.Fatalf("expected failure, got %+v", out)
	}
	if len(sessions.byDevice) != 1 || sessions.byDevice["dev-42"].State() != StateFailed {
		t.Fatalf("expected failed session kept for dismissal")
	}

	sessions.Dismiss("dev-42")
	if len(sessions.byDevice) != 0 {
		t.Fatalf("expected dismissed session forgotten")
	}
	if _, ok := sessions.Completed("dev-42"); ok {
		t.Fatalf("failed device must not count as completed")
	}
}

func TestSessionsInvalidDraftLeavesNoSession(t *testing.T) {
	wf, _, _ := newTestWorkflow(&fakeValidator{result: ValidationResult{IsValid: true}}, &fakeProvisioner{})
	sessions := NewSessions(wf)

	d := validDraft()
	d.Username = ""
	if out := sessions.Submit(context.Background(), "dev-42", d); out.Kind != KindValidation {
		t.Fatalf("expected validation outcome, got %+v", out)
	}
	if len(sessions.byDevice) != 0 {
		t.Fatalf("editing sessions must not be retained")
	}

	if out := sessions.Submit(context.Background(), "", validDraft()); out.Kind != KindMissingDeviceID {
		t.Fatalf("expected missing device id, got %+v", out)
	}
}

func TestSessionsEvictOpenSessionsAtCapacity(t *testing.T) {
	wf, _, _ := newTestWorkflow(&fakeValidator{result: ValidationResult{IsValid: true}}, &fakeProvisioner{})
	sessions := NewSessions(wf)
	for i := 0; i < maxOpenSessions; i++ {
		sess := NewSession(wf, "")
		sess.state = StateFailed
		sessions.byDevice["dev-"+strconv.Itoa(i)] = sess
	}

	sessions.session("fresh")
	if len(sessions.byDevice) != maxOpenSessions {
		t.Fatalf("expected store to stay at capacity, got %d", len(sessions.byDevice))
	}
}
