package todo

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("todo not found")

type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    int       `json:"priority"`
	Completed   bool      `json:"completed"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateTodoRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"required,max=255"`
	Priority    int    `json:"priority" binding:"required,min=1,max=5"`
	Completed   bool   `json:"completed"`
}

// a full update payload, same shape as create.
type UpdateTodoRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"required,max=255"`
	Priority    int    `json:"priority" binding:"required,min=1,max=5"`
	Completed   bool   `json:"completed"`
}

// NewFromCreateRequest builds a todo owned by ownerID. The owner never comes from the payload.
func NewFromCreateRequest(req CreateTodoRequest, ownerID string) Todo {
	now := time.Now().UTC()

	return Todo{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
