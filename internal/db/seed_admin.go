package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
)

type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// EnsureAdminUser creates the configured admin account if no user holds that username yet.
// It reports whether a user was created.
func EnsureAdminUser(ctx context.Context, users AdminStore, hasher PasswordHasher, cfg config.Config) (bool, error) {
	if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	// check if the user exists
	_, err := users.GetByUsername(ctx, cfg.AdminUsername)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	u := user.New(user.Fields{
		Username:  cfg.AdminUsername,
		Email:     cfg.AdminEmail,
		FirstName: "Admin",
		LastName:  "User",
		Role:      user.RoleAdmin,
		IsActive:  true,
	}, hash)

	_, err = users.Create(ctx, u)

	// another instance seeded it first
	if errors.Is(err, user.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
