package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenKey is the fixed key (file name) under which the bearer token is
// persisted. It is the only credential the client keeps between runs.
const TokenKey = "qronis_auth_token"

const stateFile = "state.json"

// AppState holds non-credential client state that survives restarts.
type AppState struct {
	LastRunVersion string `json:"last_run_version"`
}

// Storage persists the bearer token and app state as files under BaseDir.
type Storage struct {
	BaseDir string
	mu      sync.Mutex
}

func NewStorage(baseDir string) *Storage {
	os.MkdirAll(baseDir, 0755)
	return &Storage{BaseDir: baseDir}
}

// LoadToken returns the persisted bearer token, or "" when none is stored.
func (s *Storage) LoadToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.BaseDir, TokenKey))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveToken persists the bearer token, replacing any previous one.
func (s *Storage) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return os.WriteFile(filepath.Join(s.BaseDir, TokenKey), []byte(token), 0600)
}

// ClearToken removes the persisted token. Clearing an absent token is not
// an error.
func (s *Storage) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.BaseDir, TokenKey))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadAppState reads the stored app state. A missing or unreadable file
// yields a zero-valued state.
func (s *Storage) LoadAppState() (AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state AppState
	data, err := os.ReadFile(filepath.Join(s.BaseDir, stateFile))
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return AppState{}, err
	}
	return state, nil
}

func (s *Storage) SaveAppState(state AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.BaseDir, stateFile), data, 0644)
}
