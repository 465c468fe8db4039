package userdb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code raised when an insert loses the
// race against a concurrent registration for the same username.
const uniqueViolation = pq.ErrorCode("23505")

type PostgresStore struct {
	db *sql.DB

	nowFunc func() time.Time
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresStore{db: db, nowFunc: time.Now}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	created_at BIGINT NOT NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) UsernameExists(username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}

	var found string
	const q = `SELECT username FROM users WHERE username = $1`
	if err := s.db.QueryRow(q, username).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query username: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) Add(username, password string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}

	createdAt := s.nowFunc().UTC().Unix()
	const q = `INSERT INTO users (username, password, created_at) VALUES ($1, $2, $3)`
	if _, err := s.db.Exec(q, username, password, createdAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Authenticate(username string) (string, error) {
	var password string
	const q = `SELECT password FROM users WHERE username = $1`
	if err := s.db.QueryRow(q, username).Scan(&password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("query password: %w", err)
	}
	return password, nil
}

func (s *PostgresStore) Get(username string) (User, error) {
	var u User
	const q = `SELECT username, created_at FROM users WHERE username = $1`
	if err := s.db.QueryRow(q, username).Scan(&u.Username, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}
