package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TodosStore interface {
	Create(ctx context.Context, t todo.Todo) (todo.Todo, error)
	GetByID(ctx context.Context, id string) (todo.Todo, error)
	ListByOwner(ctx context.Context, ownerID string) ([]todo.Todo, error)
	Update(ctx context.Context, id string, req todo.UpdateTodoRequest) (todo.Todo, error)
	Delete(ctx context.Context, id string) error
}

type OwnerGuard interface {
	RequireOwner(id auth.Identity, ownerID string) error
}

type TodosHandler struct {
	repo  TodosStore
	guard OwnerGuard
	cache cache.Store
	log   *slog.Logger
}

// NewTodosHandler builds the handler. store may be nil to disable list caching.
func NewTodosHandler(repo TodosStore, guard OwnerGuard, store cache.Store, log *slog.Logger) *TodosHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TodosHandler{repo: repo, guard: guard, cache: store, log: log}
}

type TodoList struct {
	Items []todo.Todo `json:"items"`
	Count int         `json:"count"`
}

func (h *TodosHandler) ListTodos(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	key := cache.TodosKey(identity.UserID)

	if list, ok := h.cachedList(cctx, key); ok {
		RespondJSONWithETag(ctx, http.StatusOK, list)
		return
	}

	items, err := h.repo.ListByOwner(cctx, identity.UserID)
	if err != nil {
		h.log.ErrorContext(cctx, "list todos failed", "err", err)
		RespondInternal(ctx, "Could not list todos")
		return
	}

	list := TodoList{Items: items, Count: len(items)}
	h.storeList(cctx, key, list)

	RespondJSONWithETag(ctx, http.StatusOK, list)
}

func (h *TodosHandler) CreateTodo(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	var req todo.CreateTodoRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, todo.NewFromCreateRequest(req, identity.UserID))
	if err != nil {
		h.log.ErrorContext(cctx, "create todo failed", "err", err)
		RespondInternal(ctx, "Could not create todo")
		return
	}

	h.invalidate(cctx, identity.UserID)
	ctx.JSON(http.StatusCreated, created)
}

func (h *TodosHandler) GetTodo(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TodosHandler) UpdateTodo(ctx *gin.Context) {
	var req todo.UpdateTodoRequest
	if !BindJSON(ctx, &req) {
		return
	}

	existing, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, existing.ID, req)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			RespondNotFound(ctx, "Todo not found")
			return
		}
		h.log.ErrorContext(cctx, "update todo failed", "err", err, "todo_id", existing.ID)
		RespondInternal(ctx, "Could not update todo")
		return
	}

	h.invalidate(cctx, existing.OwnerID)
	ctx.JSON(http.StatusOK, updated)
}

func (h *TodosHandler) DeleteTodo(ctx *gin.Context) {
	existing, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, existing.ID)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			RespondNotFound(ctx, "Todo not found")
			return
		}
		h.log.ErrorContext(cctx, "delete todo failed", "err", err, "todo_id", existing.ID)
		RespondInternal(ctx, "Could not delete todo")
		return
	}

	h.invalidate(cctx, existing.OwnerID)
	ctx.Status(http.StatusNoContent)
}

// loadOwned fetches the todo in the path and checks ownership. Someone else's todo answers
// exactly like a missing one so ids cannot be probed.
func (h *TodosHandler) loadOwned(ctx *gin.Context) (todo.Todo, bool) {
	identity, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return todo.Todo{}, false
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			RespondNotFound(ctx, "Todo not found")
			return todo.Todo{}, false
		}
		h.log.ErrorContext(cctx, "get todo failed", "err", err)
		RespondInternal(ctx, "Could not fetch todo")
		return todo.Todo{}, false
	}

	if err := h.guard.RequireOwner(identity, t.OwnerID); err != nil {
		RespondNotFound(ctx, "Todo not found")
		return todo.Todo{}, false
	}

	return t, true
}

func (h *TodosHandler) cachedList(ctx context.Context, key string) (TodoList, bool) {
	if h.cache == nil {
		return TodoList{}, false
	}

	raw, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.log.WarnContext(ctx, "todo cache get failed", "err", err)
		return TodoList{}, false
	}
	if !ok {
		return TodoList{}, false
	}

	var list TodoList
	if err := json.Unmarshal(raw, &list); err != nil {
		return TodoList{}, false
	}
	return list, true
}

func (h *TodosHandler) storeList(ctx context.Context, key string, list TodoList) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, raw); err != nil {
		h.log.WarnContext(ctx, "todo cache set failed", "err", err)
	}
}

func (h *TodosHandler) invalidate(ctx context.Context, ownerID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, cache.TodosKey(ownerID)); err != nil {
		h.log.WarnContext(ctx, "todo cache invalidate failed", "err", err, "owner_id", ownerID)
	}
}
