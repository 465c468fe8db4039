package userdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore is the no-database fallback: a JSON file keyed by username. It
// keeps the same one-record-per-username invariant as the Postgres store.
type FileStore struct {
	path string

	mu    sync.RWMutex
	users map[string]User

	nowFunc func() time.Time
}

// fileRecord is the on-disk shape. User itself hides the password from JSON,
// so persistence needs an explicit field for it.
type fileRecord struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	CreatedAt int64  `json:"created_at"`
}

func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("user db file path is required")
	}

	s := &FileStore{
		path:    path,
		users:   make(map[string]User),
		nowFunc: time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) UsernameExists(username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[username]
	return ok, nil
}

func (s *FileStore) Add(username, password string) error {
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
	if err := s.persistLocked(); err != nil {
		delete(s.users, username)
		return err
	}
	return nil
}

func (s *FileStore) Authenticate(username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return "", ErrNotFound
	}
	return u.Password, nil
}

func (s *FileStore) Get(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return User{Username: u.Username, CreatedAt: u.CreatedAt}, nil
}

func (s *FileStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read user db file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}

	var decoded []fileRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("decode user db file: %w", err)
	}
	for _, rec := range decoded {
		if strings.TrimSpace(rec.Username) == "" {
			continue
		}
		s.users[rec.Username] = User{
			Username:  rec.Username,
			Password:  rec.Password,
			CreatedAt: rec.CreatedAt,
		}
	}
	return nil
}

func (s *FileStore) persistLocked() error {
	out := make([]fileRecord, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, fileRecord{
			Username:  u.Username,
			Password:  u.Password,
			CreatedAt: u.CreatedAt,
		})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode user db file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir user db dir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write user db file: %w", err)
	}
	return nil
}
