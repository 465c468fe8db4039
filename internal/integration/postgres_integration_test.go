package integration

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"accountportal/session-auth/internal/auth"
	"accountportal/session-auth/internal/userdb"
)

func openTestPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping Postgres integration tests")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open() error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.Ping(); err != nil {
		t.Fatalf("db.Ping() error: %v", err)
	}
	return db
}

func TestPostgresRegisterLoginRoundTrip(t *testing.T) {
	db := openTestPostgres(t)

	store, err := userdb.NewPostgresStore(db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	svc, err := auth.NewService(store)
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	username := fmt.Sprintf("itest_user_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM users WHERE username = $1`, username)
	})

	before := time.Now().UTC().Unix()
	u, err := svc.Register(username, "p1", "p1")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	after := time.Now().UTC().Unix()

	if u.Username != username {
		t.Fatalf("expected username %q, got %q", username, u.Username)
	}
	if u.CreatedAt < before || u.CreatedAt > after {
		t.Fatalf("created_at %d outside [%d, %d]", u.CreatedAt, before, after)
	}

	if _, err := svc.Login(username, "p1"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if _, err := svc.Login(username, "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPostgresDuplicateInsertSurfacesUniqueViolation(t *testing.T) {
	db := openTestPostgres(t)

	store, err := userdb.NewPostgresStore(db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}

	username := fmt.Sprintf("itest_dup_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM users WHERE username = $1`, username)
	})

	if err := store.Add(username, "p1"); err != nil {
		t.Fatalf("first Add() error: %v", err)
	}
	// Bypassing the existence check: the primary key must reject the second
	// insert, which is what closes the registration race.
	if err := store.Add(username, "p2"); !errors.Is(err, userdb.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}
