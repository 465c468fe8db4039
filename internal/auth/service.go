package auth

import (
	"errors"
	"fmt"

	"accountportal/session-auth/internal/userdb"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service turns registration and login intents into credential store
// operations. It holds no session state; the HTTP layer owns the cookie.
type Service struct {
	store userdb.Store
}

func NewService(store userdb.Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	return &Service{store: store}, nil
}

// Register validates the form fields, creates the user, and returns the
// canonical stored record. Checks run in a fixed order and the first failure
// wins: missing field, then password mismatch, then username taken.
func (s *Service) Register(username, password, confirmPassword string) (userdb.User, error) {
	if username == "" || password == "" || confirmPassword == "" {
		return userdb.User{}, ErrMissingField
	}
	if password != confirmPassword {
		return userdb.User{}, ErrPasswordMismatch
	}

	exists, err := s.store.UsernameExists(username)
	if err != nil {
		return userdb.User{}, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return userdb.User{}, ErrUsernameTaken
	}

	if err := s.store.Add(username, password); err != nil {
		// Two registrations can pass the existence check at once; the
		// store's uniqueness constraint decides the loser.
		if errors.Is(err, userdb.ErrUsernameTaken) {
			return userdb.User{}, ErrUsernameTaken
		}
		return userdb.User{}, fmt.Errorf("add user: %w", err)
	}

	u, err := s.store.Get(username)
	if err != nil {
		return userdb.User{}, fmt.Errorf("read back user: %w", err)
	}
	return u, nil
}

// Login verifies the supplied password against the stored one with exact
// string equality. Unknown usernames and wrong passwords are deliberately
// indistinguishable to the caller.
func (s *Service) Login(username, password string) (userdb.User, error) {
	stored, err := s.store.Authenticate(username)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return userdb.User{}, ErrInvalidCredentials
		}
		return userdb.User{}, fmt.Errorf("look up credentials: %w", err)
	}
	if password != stored {
		return userdb.User{}, ErrInvalidCredentials
	}

	u, err := s.store.Get(username)
	if err != nil {
		return userdb.User{}, fmt.Errorf("read back user: %w", err)
	}
	return u, nil
}

// CurrentUser re-reads the record for an authenticated username. The session
// carries only the username, so every call fetches created_at fresh; a
// vanished record surfaces as userdb.ErrNotFound, never a panic.
func (s *Service) CurrentUser(username string) (userdb.User, error) {
	if username == "" {
		return userdb.User{}, userdb.ErrNotFound
	}
	return s.store.Get(username)
}
