package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("username or email already in use")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	PhoneNumber  *string   `json:"phoneNumber"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateUserRequest is the admin-facing create payload; role is caller-chosen.
type CreateUserRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=50"`
	Email       string  `json:"email" binding:"required,email,max=100"`
	FirstName   string  `json:"firstName" binding:"required,max=50"`
	LastName    string  `json:"lastName" binding:"required,max=50"`
	Password    string  `json:"password" binding:"required,min=8,maxbytes=72"`
	Role        string  `json:"role" binding:"required,oneof=admin user"`
	IsActive    *bool   `json:"isActive"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,max=20"`
}

// RegisterRequest is the public sign-up payload. Role is always RoleUser.
type RegisterRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=50"`
	Email       string  `json:"email" binding:"required,email,max=100"`
	FirstName   string  `json:"firstName" binding:"required,max=50"`
	LastName    string  `json:"lastName" binding:"required,max=50"`
	Password    string  `json:"password" binding:"required,min=8,maxbytes=72"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,max=20"`
}

// a full update payload; the password is re-hashed on every update.
type UpdateUserRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=50"`
	Email       string  `json:"email" binding:"required,email,max=100"`
	FirstName   string  `json:"firstName" binding:"required,max=50"`
	LastName    string  `json:"lastName" binding:"required,max=50"`
	Password    string  `json:"password" binding:"required,min=8,maxbytes=72"`
	Role        string  `json:"role" binding:"omitempty,oneof=admin user"`
	IsActive    *bool   `json:"isActive"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,max=20"`
}
