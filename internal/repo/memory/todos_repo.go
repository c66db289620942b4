package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/todohub/internal/domain/todo"
)

type TodosRepo struct {
	mu    sync.RWMutex
	items map[string]todo.Todo
}

func NewTodosRepo() *TodosRepo {
	return &TodosRepo{
		items: make(map[string]todo.Todo),
	}
}

func (r *TodosRepo) Create(_ context.Context, t todo.Todo) (todo.Todo, error) {
	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TodosRepo) GetByID(_ context.Context, id string) (todo.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}
	return t, nil
}

func (r *TodosRepo) ListByOwner(_ context.Context, ownerID string) ([]todo.Todo, error) {
	r.mu.RLock()
	out := make([]todo.Todo, 0)
	for _, t := range r.items {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TodosRepo) Update(_ context.Context, id string, req todo.UpdateTodoRequest) (todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}

	t.Title = req.Title
	t.Description = req.Description
	t.Priority = req.Priority
	t.Completed = req.Completed
	t.UpdatedAt = time.Now().UTC()

	r.items[id] = t
	return t, nil
}

func (r *TodosRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return todo.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *TodosRepo) deleteByOwner(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.items {
		if t.OwnerID == ownerID {
			delete(r.items, id)
		}
	}
}
