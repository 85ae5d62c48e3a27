// Package auth provides bearer token management for the OData client.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTokenExpired is returned when a token with a known expiry has expired.
var ErrTokenExpired = errors.New("access token has expired")

// expiryBuffer treats tokens about to expire as already expired.
const expiryBuffer = 30 * time.Second

// Token is an access token with an optional expiry.
type Token struct {
	AccessToken string    `json:"access_token"         yaml:"access_token"`
	TokenType   string    `json:"token_type,omitempty" yaml:"token_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Valid reports whether the token is usable. A zero ExpiresAt never expires.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// TokenManager supplies the token for each request.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// TokenStore provides thread-safe token storage.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set stores token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}

// StaticTokenManager hands out a fixed token, e.g. one issued out of band.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager for accessToken. A zero expiresAt
// means the token does not expire.
func NewStaticTokenManager(accessToken string, expiresAt time.Time) *StaticTokenManager {
	store := NewTokenStore()
	if accessToken != "" {
		store.Set(&Token{AccessToken: accessToken, TokenType: "bearer", ExpiresAt: expiresAt})
	}

	return &StaticTokenManager{store: store}
}

// GetToken returns the token, "" when none is configured, or ErrTokenExpired.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token == nil {
		return "", nil
	}

	if !token.Valid() {
		return "", ErrTokenExpired
	}

	return token.AccessToken, nil
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(accessToken string, expiresAt time.Time) {
	if accessToken == "" {
		m.store.Clear()

		return
	}

	m.store.Set(&Token{AccessToken: accessToken, TokenType: "bearer", ExpiresAt: expiresAt})
}
