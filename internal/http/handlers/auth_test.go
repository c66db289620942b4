package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type fakeAuthenticator struct {
	loginFn    func(ctx context.Context, username, password string) (auth.Token, error)
	registerFn func(ctx context.Context, in auth.RegisterInput) (user.User, error)

	lastRegister auth.RegisterInput
	lastUsername string
}

func (f *fakeAuthenticator) Login(ctx context.Context, username, password string) (auth.Token, error) {
	f.lastUsername = username
	if f.loginFn != nil {
		return f.loginFn(ctx, username, password)
	}
	return auth.Token{AccessToken: "tok", TokenType: auth.TokenTypeBearer, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuthenticator) Register(ctx context.Context, in auth.RegisterInput) (user.User, error) {
	f.lastRegister = in
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return user.New(in.Fields, "hash"), nil
}

func (f *fakeAuthenticator) TTL() time.Duration {
	return 30 * time.Minute
}

func newAuthRouter(a *fakeAuthenticator) *gin.Engine {
	h := handlers.NewAuthHandler(a, nil)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/token", h.Token)
	return r
}

func TestTokenHandler_JSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		loginErr   error
		wantStatus int
	}{
		{name: "ok", body: `{"username":"alice","password":"password1"}`, wantStatus: http.StatusOK},
		{name: "bad_credentials", body: `{"username":"alice","password":"wrong-pass"}`, loginErr: auth.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "missing_password", body: `{"username":"alice"}`, wantStatus: http.StatusBadRequest},
		{name: "store_error", body: `{"username":"alice","password":"password1"}`, loginErr: errors.New("lookup user: db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAuthenticator{}
			if tt.loginErr != nil {
				a.loginFn = func(context.Context, string, string) (auth.Token, error) {
					return auth.Token{}, tt.loginErr
				}
			}

			w := doRequest(newAuthRouter(a), http.MethodPost, "/auth/token", "", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			switch tt.wantStatus {
			case http.StatusOK:
				var resp handlers.TokenResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal: %v", err)
				}
				if resp.AccessToken != "tok" || resp.TokenType != "bearer" || resp.ExpiresIn != 1800 {
					t.Fatalf("unexpected token response: %+v", resp)
				}
			case http.StatusUnauthorized:
				if w.Header().Get("WWW-Authenticate") != "Bearer" {
					t.Fatalf("missing bearer challenge")
				}
				if resp := decodeError(t, w); resp.Error.Code != "invalid_credentials" {
					t.Fatalf("unexpected code %q", resp.Error.Code)
				}
			}
		})
	}
}

func TestTokenHandler_Form(t *testing.T) {
	a := &fakeAuthenticator{}

	form := url.Values{"username": {"alice"}, "password": {"password1"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	newAuthRouter(a).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if a.lastUsername != "alice" {
		t.Fatalf("form username not bound: %q", a.lastUsername)
	}
}

func TestRegisterHandler(t *testing.T) {
	body := `{"username":"alice","email":"alice@example.com","firstName":"Alice","lastName":"L","password":"password1","role":"admin"}`

	tests := []struct {
		name       string
		body       string
		regErr     error
		wantStatus int
	}{
		{name: "created", body: body, wantStatus: http.StatusCreated},
		{name: "duplicate", body: body, regErr: user.ErrAlreadyExists, wantStatus: http.StatusConflict},
		{name: "bad_email", body: `{"username":"alice","email":"nope","firstName":"Alice","lastName":"L","password":"password1"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAuthenticator{}
			if tt.regErr != nil {
				a.registerFn = func(context.Context, auth.RegisterInput) (user.User, error) {
					return user.User{}, tt.regErr
				}
			}

			w := doRequest(newAuthRouter(a), http.MethodPost, "/auth/register", "", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				// a role in the payload is ignored
				if a.lastRegister.Role != user.RoleUser {
					t.Fatalf("self-registration got role %q", a.lastRegister.Role)
				}
				if strings.Contains(w.Body.String(), "password") {
					t.Fatalf("response leaks password material: %s", w.Body.String())
				}
			}
		})
	}
}

func TestAuthHandler_LogsStoreFailures(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	a := &fakeAuthenticator{
		loginFn: func(ctx context.Context, _, _ string) (auth.Token, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("login should run under a deadline")
			}
			return auth.Token{}, errors.New("connection reset")
		},
	}
	h := handlers.NewAuthHandler(a, log)
	r := gin.New()
	r.POST("/auth/token", h.Token)

	w := doRequest(r, http.MethodPost, "/auth/token", "", `{"username":"alice","password":"pw"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", w.Code)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one log line, got %q", buf.String())
	}
	if line["msg"] != "login failed" || line["level"] != "ERROR" || line["err"] != "connection reset" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if strings.Contains(buf.String(), `"pw"`) {
		t.Fatalf("password leaked into log: %s", buf.String())
	}
}
