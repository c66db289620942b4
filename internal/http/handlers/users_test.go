package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/handlers"
)

type fakeUsersRepo struct {
	users   map[string]user.User
	updated *user.User
	deleted []string
	listErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mk := func(id auth.Identity) user.User {
		return user.User{
			ID:           id.UserID,
			Username:     id.Username,
			Email:        id.Username + "@example.com",
			FirstName:    id.Username,
			LastName:     "Test",
			Role:         id.Role,
			IsActive:     true,
			PasswordHash: "old-hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	return &fakeUsersRepo{users: map[string]user.User{
		alice.UserID: mk(alice),
		bob.UserID:   mk(bob),
		root.UserID:  mk(root),
	}}
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) List(context.Context) ([]user.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []user.User{f.users[alice.UserID], f.users[bob.UserID], f.users[root.UserID]}, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, u user.User) (user.User, error) {
	if _, ok := f.users[u.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for id, other := range f.users {
		if id != u.ID && other.Email == u.Email {
			return user.User{}, user.ErrAlreadyExists
		}
	}
	f.updated = &u
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRegistrar struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (user.User, error)
	last       auth.RegisterInput
}

func (f *fakeRegistrar) Register(ctx context.Context, in auth.RegisterInput) (user.User, error) {
	f.last = in
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return user.New(in.Fields, "hashed:"+in.Password), nil
}

func (f *fakeRegistrar) HashPassword(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func newUsersHandler(repo *fakeUsersRepo, reg *fakeRegistrar) *handlers.UsersHandler {
	return handlers.NewUsersHandler(repo, reg, auth.NewGuard(false), nil, nil)
}

func TestMeHandler(t *testing.T) {
	h := newUsersHandler(newFakeUsersRepo(), &fakeRegistrar{})
	r := authedRouter(http.MethodGet, "/users/me", h.Me)

	w := doRequest(r, http.MethodGet, "/users/me", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if got["username"] != "alice" {
		t.Fatalf("unexpected user: %v", got)
	}
	if _, leaked := got["passwordHash"]; leaked {
		t.Fatalf("password hash serialized: %v", got)
	}
	if _, leaked := got["PasswordHash"]; leaked {
		t.Fatalf("password hash serialized: %v", got)
	}
}

func TestGetUserHandler(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		path       string
		wantStatus int
	}{
		{name: "self", token: "alice", path: "/users/u-alice", wantStatus: http.StatusOK},
		{name: "other_user", token: "bob", path: "/users/u-alice", wantStatus: http.StatusForbidden},
		{name: "admin", token: "root", path: "/users/u-alice", wantStatus: http.StatusOK},
		{name: "admin_missing", token: "root", path: "/users/nope", wantStatus: http.StatusNotFound},
		{name: "anonymous", path: "/users/u-alice", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newUsersHandler(newFakeUsersRepo(), &fakeRegistrar{})
			r := authedRouter(http.MethodGet, "/users/:id", h.GetUser)

			w := doRequest(r, http.MethodGet, tt.path, tt.token, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestUpdateUserHandler(t *testing.T) {
	base := `"username":"alice","email":"alice@example.com","firstName":"Alicia","lastName":"Test","password":"new-password"`

	tests := []struct {
		name       string
		token      string
		path       string
		body       string
		wantStatus int
		wantRole   string
	}{
		{name: "self", token: "alice", path: "/users/u-alice", body: `{` + base + `}`, wantStatus: http.StatusOK, wantRole: "user"},
		{name: "self_same_role", token: "alice", path: "/users/u-alice", body: `{` + base + `,"role":"user","isActive":true}`, wantStatus: http.StatusOK, wantRole: "user"},
		{name: "self_promote", token: "alice", path: "/users/u-alice", body: `{` + base + `,"role":"admin"}`, wantStatus: http.StatusForbidden},
		{name: "self_deactivate", token: "alice", path: "/users/u-alice", body: `{` + base + `,"isActive":false}`, wantStatus: http.StatusForbidden},
		{name: "other_user", token: "bob", path: "/users/u-alice", body: `{` + base + `}`, wantStatus: http.StatusForbidden},
		{name: "admin_promotes", token: "root", path: "/users/u-alice", body: `{` + base + `,"role":"admin"}`, wantStatus: http.StatusOK, wantRole: "admin"},
		{name: "email_taken", token: "alice", path: "/users/u-alice", body: `{"username":"alice","email":"bob@example.com","firstName":"A","lastName":"T","password":"new-password"}`, wantStatus: http.StatusConflict},
		{name: "short_password", token: "alice", path: "/users/u-alice", body: `{"username":"alice","email":"alice@example.com","firstName":"A","lastName":"T","password":"x"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUsersRepo()
			h := newUsersHandler(repo, &fakeRegistrar{})
			r := authedRouter(http.MethodPut, "/users/:id", h.UpdateUser)

			w := doRequest(r, http.MethodPut, tt.path, tt.token, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				if tt.wantStatus != http.StatusConflict && repo.updated != nil {
					t.Fatalf("repo updated on a rejected request")
				}
				return
			}

			if repo.updated.PasswordHash != "hashed:new-password" {
				t.Fatalf("password not re-hashed: %q", repo.updated.PasswordHash)
			}
			if repo.updated.Role != tt.wantRole {
				t.Fatalf("role = %q, want %q", repo.updated.Role, tt.wantRole)
			}
			if repo.updated.FirstName != "Alicia" {
				t.Fatalf("first name not updated: %q", repo.updated.FirstName)
			}
		})
	}
}

func TestDeleteUserHandler(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		path       string
		wantStatus int
	}{
		{name: "self", token: "alice", path: "/users/u-alice", wantStatus: http.StatusNoContent},
		{name: "other_user", token: "bob", path: "/users/u-alice", wantStatus: http.StatusForbidden},
		{name: "admin", token: "root", path: "/users/u-bob", wantStatus: http.StatusNoContent},
		{name: "admin_missing", token: "root", path: "/users/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUsersRepo()
			h := newUsersHandler(repo, &fakeRegistrar{})
			r := authedRouter(http.MethodDelete, "/users/:id", h.DeleteUser)

			w := doRequest(r, http.MethodDelete, tt.path, tt.token, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestDeleteUserHandler_DropsCachedTodos(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	ctx := context.Background()
	_ = store.Set(ctx, cache.TodosKey(alice.UserID), []byte(`{"items":[],"count":0}`))

	h := handlers.NewUsersHandler(newFakeUsersRepo(), &fakeRegistrar{}, auth.NewGuard(false), store, nil)
	r := authedRouter(http.MethodDelete, "/users/:id", h.DeleteUser)

	if w := doRequest(r, http.MethodDelete, "/users/u-alice", "alice", ""); w.Code != http.StatusNoContent {
		t.Fatalf("got status %d", w.Code)
	}
	if _, ok, _ := store.Get(ctx, cache.TodosKey(alice.UserID)); ok {
		t.Fatalf("cached todo list survived user deletion")
	}
}

func TestCreateUserHandler(t *testing.T) {
	body := `{"username":"carol","email":"carol@example.com","firstName":"Carol","lastName":"C","password":"password1","role":"admin"}`

	tests := []struct {
		name       string
		body       string
		regErr     error
		wantStatus int
	}{
		{name: "created", body: body, wantStatus: http.StatusCreated},
		{name: "conflict", body: body, regErr: user.ErrAlreadyExists, wantStatus: http.StatusConflict},
		{name: "bad_role", body: `{"username":"carol","email":"carol@example.com","firstName":"Carol","lastName":"C","password":"password1","role":"owner"}`, wantStatus: http.StatusBadRequest},
		{name: "store_error", body: body, regErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &fakeRegistrar{}
			if tt.regErr != nil {
				reg.registerFn = func(context.Context, auth.RegisterInput) (user.User, error) {
					return user.User{}, tt.regErr
				}
			}
			h := newUsersHandler(newFakeUsersRepo(), reg)
			r := authedRouter(http.MethodPost, "/users", h.CreateUser)

			w := doRequest(r, http.MethodPost, "/users", "root", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				if reg.last.Role != "admin" || !reg.last.IsActive {
					t.Fatalf("unexpected register input: %+v", reg.last.Fields)
				}
			}
		})
	}
}

func TestListUsersHandler(t *testing.T) {
	repo := newFakeUsersRepo()
	h := newUsersHandler(repo, &fakeRegistrar{})
	r := authedRouter(http.MethodGet, "/users", h.ListUsers)

	w := doRequest(r, http.MethodGet, "/users", "root", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Count != 3 {
		t.Fatalf("unexpected list response: %s", w.Body.String())
	}

	repo.listErr = errors.New("db down")
	if w := doRequest(r, http.MethodGet, "/users", "root", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
}
