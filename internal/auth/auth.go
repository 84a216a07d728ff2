package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmptyCredentials   = errors.New("username and password are required")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, so a multibyte
// password reaches it in fewer characters.
const MaxPasswordBytes = 72

// User is a stored account. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
}

// UserRepository is the credential storage the Service depends on.
type UserRepository interface {
	// InsertUser stores a new user and returns its id, or ErrUsernameTaken.
	InsertUser(ctx context.Context, username string, passwordHash []byte) (int64, error)
	// UserByName returns the user or ErrUserNotFound.
	UserByName(ctx context.Context, username string) (User, error)
}

// Service registers users and resolves credentials to user ids.
type Service struct {
	users UserRepository
	cost  int
	dummy []byte
}

// NewService creates a Service hashing with the given bcrypt cost
// (bcrypt.DefaultCost when out of range).
func NewService(users UserRepository, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the user does not exist so both paths cost the same.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("route-weather"), cost)
	return &Service{users: users, cost: cost, dummy: dummy}
}

// CreateUser registers username. It returns false when the name is taken.
func (s *Service) CreateUser(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, ErrEmptyCredentials
	}
	if len(password) > MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.users.InsertUser(ctx, username, hash); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return false, nil
		}
		return false, fmt.Errorf("insert user: %w", err)
	}
	return true, nil
}

// ResolveUser checks the password and returns the user id, or
// ErrInvalidCredentials for an unknown user or wrong password.
func (s *Service) ResolveUser(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrInvalidCredentials
	}

	user, err := s.users.UserByName(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}
