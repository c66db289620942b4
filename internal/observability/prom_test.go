package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDB_CountsErrorsByClass(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	require.NoError(t, p.ObserveDB("users.get", func() error { return nil }))

	dup := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	err := p.ObserveDB("users.create", func() error { return fmt.Errorf("insert: %w", dup) })
	assert.ErrorIs(t, err, dup)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.get", "unknown")))
}

func TestObserveDB_NilProm(t *testing.T) {
	var p *Prom
	called := false
	err := p.ObserveDB("noop", func() error { called = true; return nil })
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestClassifyDBErr(t *testing.T) {
	tests := map[string]error{
		"unique_violation":      &pgconn.PgError{Code: pgerrcode.UniqueViolation},
		"foreign_key_violation": &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
		"deadlock":              &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
		"check_violation":       &pgconn.PgError{Code: pgerrcode.CheckViolation},
		"canceled":              fmt.Errorf("query: %w", context.Canceled),
		"pg_42P01":              &pgconn.PgError{Code: "42P01"},
		"timeout":               context.DeadlineExceeded,
		"connection":            errors.New("connection refused"),
		"unknown":               errors.New("boom"),
	}

	for want, err := range tests {
		assert.Equal(t, want, classifyDBErr(err))
	}
}

func TestAuthAttemptAndCacheLookup(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.AuthAttempt("login", "ok")
	p.AuthAttempt("login", "ok")
	p.AuthAttempt("login", "invalid_credentials")
	p.CacheLookup(true)
	p.CacheLookup(false)
	p.CacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.AuthAttemptsTotal.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.CacheLookupsTotal.WithLabelValues("miss")))
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware("/metrics"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", p.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "todohub_http_requests_total"))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/metrics", "200")))
}

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(LoggerConfig{Env: "prod", Service: "todohub"}, &buf)

	log.Info("login", "username", "alice", "password", "p1", "Authorization", "Bearer abc.def.ghi")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "alice", line["username"])
	assert.Equal(t, "todohub", line["service"])
	assert.Equal(t, "[redacted]", line["password"])
	assert.Equal(t, "[redacted]", line["Authorization"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		cfg       LoggerConfig
		wantDebug bool
		wantInfo  bool
	}{
		{name: "dev_defaults_to_debug", cfg: LoggerConfig{Env: "dev"}, wantDebug: true, wantInfo: true},
		{name: "prod_defaults_to_info", cfg: LoggerConfig{Env: "prod"}, wantInfo: true},
		{name: "explicit_level_wins", cfg: LoggerConfig{Env: "dev", Level: "warn"}},
		{name: "bad_level_falls_back", cfg: LoggerConfig{Env: "prod", Level: "loud"}, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(tt.cfg, &buf)

			log.Debug("d")
			assert.Equal(t, tt.wantDebug, buf.Len() > 0)

			buf.Reset()
			log.Info("i")
			assert.Equal(t, tt.wantInfo, buf.Len() > 0)
		})
	}
}
