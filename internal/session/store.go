package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

// Session is a point-in-time copy of the store's state.
type Session struct {
	AccessToken string
	User        models.UserInfo
}

// Authenticated is derived from the token alone.
func (s Session) Authenticated() bool { return s.AccessToken != "" }

// Store holds the current access token and identity.
//
// Token and identity change together under one lock and are persisted in one
// [Backend.Save] call, so no reader ever sees one without the other. Reads
// never wait on storage I/O.
type Store struct {
	backend Backend
	logger  *log.Logger

	// writeMu serializes mutations so memory and backend apply in the same order.
	writeMu sync.Mutex

	mu    sync.RWMutex
	token string
	user  models.UserInfo

	subMu   sync.Mutex
	subs    map[int]func(bool)
	nextSub int
}

// NewStore returns a logged-out store backed by b. A nil backend keeps state in memory only.
func NewStore(b Backend, logger *log.Logger) *Store {
	if b == nil {
		b = NewMemoryBackend()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{backend: b, logger: logger, subs: make(map[int]func(bool))}
}

// SetSession replaces the current session with token and user.
//
// The in-memory session is always applied. A failure to persist is returned
// so callers can warn that the session will not survive a restart.
func (s *Store) SetSession(ctx context.Context, token string, user models.UserInfo) error {
	if token == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidArgument)
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user info: %w", err)
	}

	s.writeMu.Lock()
	s.mu.Lock()
	was := s.token != ""
	s.token, s.user = token, user
	s.mu.Unlock()

	err = s.backend.Save(ctx, map[string][]byte{
		KeyAccessToken: []byte(token),
		KeyUserInfo:    userJSON,
	})
	// notified under writeMu so subscribers see transitions in commit order
	if !was {
		s.notify(true)
	}
	s.writeMu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: failed to persist session: %w", shared.ErrStorage, err)
	}
	return nil
}

// ClearSession forgets the session in memory and in storage. Calling it when
// already logged out only repeats the storage delete.
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.clear(ctx)
	return err
}

// clear reports whether a session was actually present.
func (s *Store) clear(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	s.mu.Lock()
	was := s.token != ""
	s.token, s.user = "", models.UserInfo{}
	s.mu.Unlock()

	err := s.backend.Delete(ctx, KeyAccessToken, KeyUserInfo)
	if was {
		s.notify(false)
	}
	s.writeMu.Unlock()

	if err != nil {
		return was, fmt.Errorf("%w: failed to delete session: %w", shared.ErrStorage, err)
	}
	return was, nil
}

// ClearIfToken clears the session only while token is still the current one.
// It reports whether it cleared anything.
func (s *Store) ClearIfToken(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()
	if current == "" || current != token {
		return false, nil
	}
	return s.clear(ctx)
}

// Token returns the current access token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// User returns the signed-in identity, if any.
func (s *Store) User() (models.UserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

func (s *Store) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// Snapshot returns token and identity read under one lock.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{AccessToken: s.token, User: s.user}
}

// RestoreOnLoad primes the store from the backend. Anything missing or
// malformed leaves the store logged out; it never fails. It reports whether a
// session was restored.
func (s *Store) RestoreOnLoad(ctx context.Context) bool {
	entries, err := s.backend.Load(ctx, KeyAccessToken, KeyUserInfo)
	if err != nil {
		s.logger.Warn("could not read stored session, starting logged out", "error", err)
		return false
	}

	token := string(entries[KeyAccessToken])
	raw, ok := entries[KeyUserInfo]
	if token == "" || !ok {
		s.logger.Debug("no stored session")
		return false
	}

	var user models.UserInfo
	if err := json.Unmarshal(raw, &user); err != nil {
		s.logger.Debug("stored user info is malformed, starting logged out", "error", err)
		return false
	}

	s.writeMu.Lock()
	s.mu.Lock()
	was := s.token != ""
	s.token, s.user = token, user
	s.mu.Unlock()
	if !was {
		s.notify(true)
	}
	s.writeMu.Unlock()

	s.logger.Debug("restored session", "user", user.Nickname)
	return true
}

// Subscribe registers fn to be called with the new authenticated value on
// every logged-in/logged-out transition. fn must not call back into
// SetSession or ClearSession. The returned func unregisters it.
func (s *Store) Subscribe(fn func(authenticated bool)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(authenticated bool) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, fn := range s.subs {
		fn(authenticated)
	}
}

// OAuth2Token wraps the current token for header attachment.
func (s *Store) OAuth2Token() (*oauth2.Token, bool) {
	token, ok := s.Token()
	if !ok {
		return nil, false
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, true
}

// TokenSource adapts the store to [oauth2.TokenSource]. Token fails with
// [shared.ErrNotAuthenticated] while logged out.
func (s *Store) TokenSource() oauth2.TokenSource { return tokenSource{s} }

type tokenSource struct{ s *Store }

func (ts tokenSource) Token() (*oauth2.Token, error) {
	if tok, ok := ts.s.OAuth2Token(); ok {
		return tok, nil
	}
	return nil, shared.ErrNotAuthenticated
}
