package main

import (
	"testing"
	"time"

	"kanban-todo/api"
)

func TestSignTokenVerifiesWithServerAuth(t *testing.T) {
	tok, err := signToken("s3cret", "admin", time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	user, err := api.NewAuth("admin", "pw", "s3cret", false).VerifyToken(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user != "admin" {
		t.Fatalf("unexpected username %q", user)
	}
}

func TestSignTokenExpired(t *testing.T) {
	tok, err := signToken("s3cret", "admin", time.Now().Add(-2*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := api.NewAuth("admin", "pw", "s3cret", false).VerifyToken(tok); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
