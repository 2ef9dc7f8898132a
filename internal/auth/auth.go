// Package auth provides the user authentication boundary. Conversations are
// stored per user, so every history operation is scoped by the identity this
// package establishes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown users and wrong passwords,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUserExists is returned when registering an already-known email.
	ErrUserExists = errors.New("auth: user already exists")
)

// User is an authenticated identity. Email doubles as the user ID for
// history scoping.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authenticator registers and verifies users. Implementations must be safe
// for concurrent use.
type Authenticator interface {
	// Register creates a new user. Returns ErrUserExists for a duplicate
	// email.
	Register(ctx context.Context, email, name, password string) (User, error)

	// Login verifies credentials. Returns ErrInvalidCredentials when the
	// user is unknown or the password does not match.
	Login(ctx context.Context, email, password string) (User, error)
}

// Compile-time assertion that Memory satisfies Authenticator.
var _ Authenticator = (*Memory)(nil)

type record struct {
	user User
	hash []byte
}

// Memory is an in-process Authenticator holding bcrypt password hashes.
// The zero value is ready to use.
type Memory struct {
	mu    sync.RWMutex
	users map[string]record
}

// NewMemory returns an empty in-memory Authenticator.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]record)}
}

// Register implements Authenticator.
func (m *Memory) Register(_ context.Context, email, name, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, fmt.Errorf("auth: email must not be empty")
	}
	if password == "" {
		return User{}, fmt.Errorf("auth: password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]record)
	}
	if _, ok := m.users[email]; ok {
		return User{}, ErrUserExists
	}
	u := User{Email: email, Name: name}
	m.users[email] = record{user: u, hash: hash}
	return u, nil
}

// Login implements Authenticator.
func (m *Memory) Login(_ context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)

	m.mu.RLock()
	rec, ok := m.users[email]
	m.mu.RUnlock()
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return rec.user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
