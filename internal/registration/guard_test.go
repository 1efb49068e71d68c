package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryGuard(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "dev-42")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := g.Acquire(ctx, "dev-42"); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("expected in progress, got %v", err)
	}
	if r, err := g.Acquire(ctx, "dev-43"); err != nil {
		t.Fatalf("other keys must not block: %v", err)
	} else {
		r()
	}

	release()
	release()
	again, err := g.Acquire(ctx, "dev-42")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestRedisGuard(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	g := NewRedisGuard(cache, 30*time.Second)
	ctx := context.Background()

	release, err := g.Acquire(ctx, "dev-42")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := g.Acquire(ctx, "dev-42"); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("expected in progress, got %v", err)
	}
	release()
	if mr.Exists(submissionLockPrefix + "dev-42") {
		t.Fatalf("lock should be gone after release")
	}

	if _, err := g.Acquire(ctx, "dev-7"); err != nil {
		t.Fatalf("acquire dev-7: %v", err)
	}
	mr.FastForward(31 * time.Second)
	if _, err := g.Acquire(ctx, "dev-7"); err != nil {
		t.Fatalf("expired lock should not block: %v", err)
	}
}

func TestRedisGuardStoreFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer cache.Close()
	mr.Close()

	g := NewRedisGuard(cache, time.Minute)
	_, err = g.Acquire(context.Background(), "dev-42")
	if err == nil || errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("expected store error, got %v", err)
	}

	wf := NewWorkflow(&fakeValidator{result: ValidationResult{IsValid: true}}, &fakeProvisioner{}, g, nil, nil, nil)
	out := wf.Submit(context.Background(), "dev-42", validDraft())
	if out.Kind != KindUnavailable {
		t.Fatalf("expected unavailable outcome, got %+v", out)
	}
}
