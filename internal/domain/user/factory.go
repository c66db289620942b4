package user

import (
	"time"

	"github.com/google/uuid"
)

// Fields is everything needed to create a user except the credential, which callers hash first.
type Fields struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Role        string
	IsActive    bool
	PhoneNumber *string
}

func New(f Fields, passwordHash string) User {
	now := time.Now().UTC()

	role := f.Role
	if role == "" {
		role = RoleUser
	}

	return User{
		ID:           uuid.NewString(),
		Username:     f.Username,
		Email:        f.Email,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Role:         role,
		IsActive:     f.IsActive,
		PhoneNumber:  f.PhoneNumber,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
