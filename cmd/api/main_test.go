package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword(strings.NewReader("hunter2!\n"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2!")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := hashPassword(strings.NewReader("\n"), bcrypt.MinCost); !errors.Is(err, errEmptyPassword) {
		t.Fatalf("expected errEmptyPassword, got %v", err)
	}
}

func TestHashPasswordCommand(t *testing.T) {
	cmd := newHashPasswordCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader("s3cret!"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cost", "4"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret!")); err != nil {
		t.Fatalf("printed hash does not verify: %v", err)
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("KEYCLOAK_URL", "")
	if err := serve(context.Background(), ""); err == nil {
		t.Fatalf("expected config error")
	}
}
