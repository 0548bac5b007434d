// Package admin guards the operator-only endpoints behind a password login.
package admin

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrDisabled        = errors.New("admin login is disabled")
)

// Auth issues one admin token per process on the first successful login and
// hands the same token to every later login.
type Auth struct {
	hash []byte

	mu    sync.RWMutex
	token string
}

// New hashes password. An empty password disables login.
func New(password string) (*Auth, error) {
	a := &Auth{}
	if password == "" {
		return a, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	a.hash = hash
	return a, nil
}

func (a *Auth) Login(password string) (string, error) {
	if a.hash == nil {
		return "", ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" {
		a.token = uuid.NewString()
	}
	return a.token, nil
}

// Authorize reports whether token is the issued admin token.
func (a *Auth) Authorize(token string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.token), []byte(token)) == 1
}
