package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/todohub/internal/domain/user"
)

const (
	TokenTypeBearer = "bearer"
	DefaultTokenTTL = 30 * time.Minute
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// AttemptRecorder receives one call per login/register outcome.
type AttemptRecorder interface {
	AuthAttempt(op, result string)
}

type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type RegisterInput struct {
	user.Fields
	Password string
}

type Authenticator struct {
	users   UserStore
	hasher  PasswordHasher
	codec   *Codec
	ttl     time.Duration
	metrics AttemptRecorder

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthenticator(users UserStore, hasher PasswordHasher, codec *Codec, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Authenticator{
		users:  users,
		hasher: hasher,
		codec:  codec,
		ttl:    ttl,
	}
}

func (a *Authenticator) WithMetrics(m AttemptRecorder) *Authenticator {
	a.metrics = m
	return a
}

func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Login checks username (exact, case-sensitive) and password and issues an access token.
// Every credential failure is ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Token, error) {
	u, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// burn the same bcrypt work as a real check
			a.hasher.Verify(password, a.dummy())
			a.record("login", "invalid_credentials")
			return Token{}, ErrInvalidCredentials
		}

		a.record("login", "error")
		return Token{}, fmt.Errorf("lookup user: %w", err)
	}

	ok := a.hasher.Verify(password, u.PasswordHash)
	if !ok || !u.IsActive {
		a.record("login", "invalid_credentials")
		return Token{}, ErrInvalidCredentials
	}

	raw, expiresAt, err := a.codec.Encode(Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	}, a.ttl)
	if err != nil {
		a.record("login", "error")
		return Token{}, fmt.Errorf("encode token: %w", err)
	}

	a.record("login", "ok")

	return Token{
		AccessToken: raw,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

// Register hashes the password and hands the new user to the store.
func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		a.record("register", "error")
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := a.users.Create(ctx, user.New(in.Fields, hash))
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			a.record("register", "conflict")
		} else {
			a.record("register", "error")
		}
		return user.User{}, err
	}

	a.record("register", "ok")
	return created, nil
}

func (a *Authenticator) HashPassword(plain string) (string, error) {
	return a.hasher.Hash(plain)
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		h, err := a.hasher.Hash("todohub-dummy-password")
		if err == nil {
			a.dummyHash = h
		}
	})
	return a.dummyHash
}

func (a *Authenticator) record(op, result string) {
	if a.metrics != nil {
		a.metrics.AuthAttempt(op, result)
	}
}
