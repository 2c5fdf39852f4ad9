// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package authtest provides in-memory implementations of the auth store
// interfaces for tests. They are safe for concurrent use and return deep
// copies so tests cannot mutate store state through returned pointers.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/internal/users/auth"
	"github.com/taibuivan/kanso/pkg/pagination"
)

// # Users

// MemUsers is an in-memory auth.UserStore.
type MemUsers struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

// NewMemUsers creates a MemUsers seeded with the given users.
func NewMemUsers(users ...*auth.User) *MemUsers {
	m := &MemUsers{users: make(map[string]*auth.User)}
	for _, u := range users {
		clone := *u
		m.users[u.ID] = &clone
	}
	return m
}

func (m *MemUsers) Create(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Name, user.Name) || strings.EqualFold(u.Email, user.Email) {
			return apperr.Conflict("Resource already exists")
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *MemUsers) GetByID(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, dberr.ErrNotFound
}

func (m *MemUsers) GetByName(_ context.Context, name string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Name, name) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (m *MemUsers) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (m *MemUsers) GetByNameOrEmail(ctx context.Context, nameOrEmail string) (*auth.User, error) {
	if strings.Contains(nameOrEmail, "@") {
		return m.GetByEmail(ctx, nameOrEmail)
	}
	return m.GetByName(ctx, nameOrEmail)
}

func (m *MemUsers) List(_ context.Context, _ pagination.Params) ([]*auth.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*auth.User, 0, len(m.users))
	for _, u := range m.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (m *MemUsers) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	return m.update(id, func(u *auth.User) { u.PasswordHash = passwordHash })
}

func (m *MemUsers) UpdateAdmin(_ context.Context, id string, admin bool) error {
	return m.update(id, func(u *auth.User) { u.Admin = admin })
}

func (m *MemUsers) UpdateEnabled(_ context.Context, id string, enabled bool) error {
	return m.update(id, func(u *auth.User) { u.Enabled = enabled })
}

func (m *MemUsers) UpdateEmailVerified(_ context.Context, id string, verified bool) error {
	return m.update(id, func(u *auth.User) { u.EmailVerified = verified })
}

func (m *MemUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return m.update(id, func(u *auth.User) { u.LastLogin = &at })
}

func (m *MemUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return dberr.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemUsers) update(id string, fn func(*auth.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return dberr.ErrNotFound
	}
	fn(u)
	return nil
}

// # Sessions

// MemSessions is an in-memory auth.SessionStore.
type MemSessions struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
}

// NewMemSessions creates a MemSessions seeded with the given sessions.
func NewMemSessions(sessions ...*auth.Session) *MemSessions {
	m := &MemSessions{sessions: make(map[string]*auth.Session)}
	for _, s := range sessions {
		clone := *s
		m.sessions[s.ID] = &clone
	}
	return m
}

func (m *MemSessions) Create(_ context.Context, session *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *session
	m.sessions[session.ID] = &clone
	return nil
}

func (m *MemSessions) GetByID(_ context.Context, id string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, dberr.ErrNotFound
}

func (m *MemSessions) GetByRefreshTokenHash(_ context.Context, hash string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.RefreshTokenHash == hash {
			clone := *s
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (m *MemSessions) ListByUser(_ context.Context, userID string) ([]*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*auth.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MemSessions) ListRefreshTokenHashesByUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s.RefreshTokenHash)
		}
	}
	return out, nil
}

func (m *MemSessions) RotateRefreshTokenHash(_ context.Context, id, oldHash, newHash string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RefreshTokenHash != oldHash {
		return false, nil
	}
	s.RefreshTokenHash = newHash
	s.UpdatedAt = now
	return true, nil
}

func (m *MemSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return dberr.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemSessions) DeleteByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored sessions.
func (m *MemSessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// # Revocations

// MemRevocations is an in-memory auth.RevocationStore. TTLs are ignored.
type MemRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool

	// FailWith, when non-nil, is returned by every call, simulating an
	// unreachable cache.
	FailWith error
}

// NewMemRevocations creates an empty MemRevocations.
func NewMemRevocations() *MemRevocations {
	return &MemRevocations{revoked: make(map[string]bool)}
}

func (m *MemRevocations) Invalidate(_ context.Context, hash string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.revoked[hash] = true
	return nil
}

func (m *MemRevocations) IsInvalidated(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}
	return m.revoked[hash], nil
}

// # Failed logins

// MemFailed is an in-memory auth.FailedAuthStore. Windows never expire.
type MemFailed struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemFailed creates an empty MemFailed.
func NewMemFailed() *MemFailed {
	return &MemFailed{counts: make(map[string]int64)}
}

func (m *MemFailed) key(login string) string { return strings.ToLower(login) }

func (m *MemFailed) Increment(_ context.Context, login string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[m.key(login)]++
	return m.counts[m.key(login)], nil
}

func (m *MemFailed) Count(_ context.Context, login string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[m.key(login)], nil
}

func (m *MemFailed) Reset(_ context.Context, logins ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, login := range logins {
		delete(m.counts, m.key(login))
	}
	return nil
}

// # CAPTCHA

// StubCaptcha is an auth.CaptchaVerifier with scripted answers.
type StubCaptcha struct {
	// IsEnabled controls Enabled(). A disabled stub accepts everything.
	IsEnabled bool
	// Accept controls whether a non-empty response verifies.
	Accept bool
}

func (c *StubCaptcha) Enabled() bool { return c.IsEnabled }

func (c *StubCaptcha) Verify(_ context.Context, response string) (bool, error) {
	if !c.IsEnabled {
		return true, nil
	}
	return c.Accept && response != "", nil
}
