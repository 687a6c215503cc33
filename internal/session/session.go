package session

import (
	"context"
	"log"
	"sync"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/events"
	"github.com/vBaggio/qronis/internal/models"
	"github.com/vBaggio/qronis/internal/store"
)

// Store is the single source of truth for "who is logged in". It owns the
// persisted bearer token through storage and the in-memory profile, and it
// is the sole consumer of the transport's session-expired signal.
//
// A persisted token alone never counts as authenticated: the profile must
// be fetched successfully on the current token first.
type Store struct {
	api     *api.Client
	storage *store.Storage

	mu        sync.Mutex
	user      *models.User
	loading   bool
	listeners []func()

	unsubscribe func()
}

// NewStore wires the session store to the API client and the expiry bus.
// The store starts in the loading state until Initialize completes.
func NewStore(client *api.Client, storage *store.Storage, expired *events.Bus) *Store {
	s := &Store{
		api:     client,
		storage: storage,
		loading: true,
	}
	s.unsubscribe = expired.Subscribe(s.handleExpired)
	return s
}

// Close detaches the store from the expiry bus.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// OnChange registers a callback invoked after every state transition.
// Callbacks run on whichever goroutine triggered the transition.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// User returns the authenticated profile, or nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated is true iff a profile fetch succeeded on the current token.
func (s *Store) IsAuthenticated() bool {
	return s.User() != nil
}

// IsLoading is true only during the initial boot-time credential check.
// Views must not trust IsAuthenticated until it reports false.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Initialize performs the boot-time credential check. Without a persisted
// token it completes immediately as anonymous, making no network call.
// With one, it exchanges the token for a profile; any failure clears the
// token and leaves the store anonymous — stale credentials are not retried.
func (s *Store) Initialize(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.notify()
	}()

	token := s.storage.LoadToken()
	if token == "" {
		return
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		log.Printf("session: stored token rejected during boot: %v", err)
		s.storage.ClearToken()
		return
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// Login persists the token and immediately fetches the profile behind it.
// On failure the token is removed again so no half-authenticated state is
// ever left behind, and the error is returned for the login form.
func (s *Store) Login(ctx context.Context, token string) error {
	if err := s.storage.SaveToken(token); err != nil {
		return err
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.Logout()
		return err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.notify()
	return nil
}

// Logout clears the persisted token and the in-memory profile. Safe to
// call when already logged out; listeners only fire on a real transition.
func (s *Store) Logout() {
	s.storage.ClearToken()

	s.mu.Lock()
	changed := s.user != nil
	s.user = nil
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// handleExpired reacts to the transport's 401 broadcast. Concurrent 401s
// collapse into a single logged-out transition because Logout only
// notifies when the user was still set.
func (s *Store) handleExpired() {
	s.Logout()
}

func (s *Store) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
