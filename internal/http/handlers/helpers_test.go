package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

var (
	alice = auth.Identity{UserID: "u-alice", Username: "alice", Role: "user"}
	bob   = auth.Identity{UserID: "u-bob", Username: "bob", Role: "user"}
	root  = auth.Identity{UserID: "u-root", Username: "root", Role: "admin"}
)

// tokenResolver treats the bearer token as a key into a fixed identity table.
type tokenResolver map[string]auth.Identity

func (r tokenResolver) ResolveHeader(header string) (auth.Identity, error) {
	if len(header) < len("Bearer ") {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	id, ok := r[header[len("Bearer "):]]
	if !ok {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return id, nil
}

var identities = tokenResolver{"alice": alice, "bob": bob, "root": root}

// authedRouter mounts one handler behind RequireAuth.
func authedRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())

	m := middlewares.NewAuthMiddleware(identities)
	r.Handle(method, path, m.RequireAuth(), h)

	return r
}

func doRequest(r http.Handler, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}
