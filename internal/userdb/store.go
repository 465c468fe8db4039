package userdb

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Store is durable CRUD over credential records. Implementations must keep
// exactly one record per username and assign CreatedAt at insert time.
type Store interface {
	UsernameExists(username string) (bool, error)
	Add(username, password string) error
	Authenticate(username string) (string, error)
	Get(username string) (User, error)
}

type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User

	nowFunc func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[string]User),
		nowFunc: time.Now,
	}
}

func (s *InMemoryStore) UsernameExists(username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[username]
	return ok, nil
}

func (s *InMemoryStore) Add(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return ErrUsernameTaken
	}
	s.users[username] = User{
		Username:  username,
		Password:  password,
		CreatedAt: s.nowFunc().UTC().Unix(),
	}
	return nil
}

func (s *InMemoryStore) Authenticate(username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return "", ErrNotFound
	}
	return u.Password, nil
}

func (s *InMemoryStore) Get(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return User{Username: u.Username, CreatedAt: u.CreatedAt}, nil
}
