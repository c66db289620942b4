package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id string) error
}

// UserRegistrar creates users and hashes passwords; *auth.Authenticator implements it.
type UserRegistrar interface {
	Register(ctx context.Context, in auth.RegisterInput) (user.User, error)
	HashPassword(plain string) (string, error)
}

type SelfOrAdminGuard interface {
	RequireSelfOrAdmin(id auth.Identity, userID string) error
}

type UsersHandler struct {
	users     UsersStore
	registrar UserRegistrar
	guard     SelfOrAdminGuard
	cache     cache.Store
	log       *slog.Logger
}

func NewUsersHandler(users UsersStore, registrar UserRegistrar, guard SelfOrAdminGuard, store cache.Store, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{users: users, registrar: registrar, guard: guard, cache: store, log: log}
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	h.respondUser(ctx, identity.UserID)
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		h.log.ErrorContext(cctx, "list users failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": users,
		"count": len(users),
	})
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.registrar.Register(cctx, auth.RegisterInput{
		Fields: user.Fields{
			Username:    req.Username,
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Role:        req.Role,
			IsActive:    active,
			PhoneNumber: req.PhoneNumber,
		},
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			RespondConflict(ctx, "user_exists", "Username or email is already in use.")
			return
		}
		h.log.ErrorContext(cctx, "create user failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")
	if !h.authorize(ctx, id) {
		return
	}

	h.respondUser(ctx, id)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id := ctx.Param("id")
	if !h.authorize(ctx, id) {
		return
	}
	identity, _ := middlewares.IdentityFromContext(ctx)

	var req user.UpdateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	existing, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "get user failed", "err", err, "target_user_id", id)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	role, active := existing.Role, existing.IsActive
	if req.Role != "" {
		role = req.Role
	}
	if req.IsActive != nil {
		active = *req.IsActive
	}

	if !identity.IsAdmin() && (role != existing.Role || active != existing.IsActive) {
		RespondForbidden(ctx, "Only admins can change role or active status")
		return
	}

	hash, err := h.registrar.HashPassword(req.Password)
	if err != nil {
		h.log.ErrorContext(cctx, "hash password failed", "err", err)
		RespondInternal(ctx, "Could not update user")
		return
	}

	updated, err := h.users.Update(cctx, user.User{
		ID:           existing.ID,
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		IsActive:     active,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		CreatedAt:    existing.CreatedAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrAlreadyExists):
			RespondConflict(ctx, "user_exists", "Username or email is already in use.")
		default:
			h.log.ErrorContext(cctx, "update user failed", "err", err, "target_user_id", id)
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")
	if !h.authorize(ctx, id) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "delete user failed", "err", err, "target_user_id", id)
		RespondInternal(ctx, "Could not delete user")
		return
	}

	// their todos went with them
	if h.cache != nil {
		if err := h.cache.Delete(cctx, cache.TodosKey(id)); err != nil {
			h.log.WarnContext(cctx, "todo cache invalidate failed", "err", err, "owner_id", id)
		}
	}

	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) authorize(ctx *gin.Context, targetID string) bool {
	identity, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return false
	}

	if err := h.guard.RequireSelfOrAdmin(identity, targetID); err != nil {
		RespondForbidden(ctx, "Not allowed to access this user")
		return false
	}
	return true
}

func (h *UsersHandler) respondUser(ctx *gin.Context, id string) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "get user failed", "err", err, "target_user_id", id)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
