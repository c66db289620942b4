package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Register(ctx context.Context, in auth.RegisterInput) (user.User, error)
	TTL() time.Duration
}

type AuthHandler struct {
	authn Authenticator
	log   *slog.Logger
}

func NewAuthHandler(authn Authenticator, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{authn: authn, log: log}
}

// TokenRequest accepts both JSON and OAuth2 password-grant form posts.
type TokenRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.authn.Register(cctx, auth.RegisterInput{
		Fields: user.Fields{
			Username:    req.Username,
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Role:        user.RoleUser,
			IsActive:    true,
			PhoneNumber: req.PhoneNumber,
		},
		Password: req.Password,
	})

	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			RespondConflict(ctx, "user_exists", "Username or email is already in use.")
			return
		}

		h.log.ErrorContext(cctx, "register failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Token(ctx *gin.Context) {
	var req TokenRequest

	if !Bind(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	tok, err := h.authn.Login(cctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Incorrect username or password")
			return
		}

		h.log.ErrorContext(cctx, "login failed", "err", err)
		RespondInternal(ctx, "Could not issue token")
		return
	}

	ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   int(h.authn.TTL().Seconds()),
	})
}
