package userdb

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	before := time.Now().UTC().Unix()
	if err := store.Add("alice", "p1"); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	after := time.Now().UTC().Unix()

	store2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() second error: %v", err)
	}

	pw, err := store2.Authenticate("alice")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if pw != "p1" {
		t.Fatalf("expected persisted password p1, got %q", pw)
	}

	u, err := store2.Get("alice")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if u.CreatedAt < before || u.CreatedAt > after {
		t.Fatalf("created_at %d outside [%d, %d]", u.CreatedAt, before, after)
	}
}

func TestFileStoreRejectsDuplicateUsername(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	if err := store.Add("alice", "p1"); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := store.Add("alice", "p2"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestFileStoreGetHidesPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if err := store.Add("alice", "p1"); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	u, err := store.Get("alice")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if u.Password != "" {
		t.Fatalf("Get() must not expose the password, got %q", u.Password)
	}
}
