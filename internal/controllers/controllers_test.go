package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourteentrees/flow-gateway/internal/config"
	"github.com/fourteentrees/flow-gateway/internal/loaders"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func get(handler gin.HandlerFunc) (int, map[string]any) {
	r := gin.New()
	r.GET("/", handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestHealthCheck(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		code     int
		database string
	}{
		{"up", nil, http.StatusOK, "up"},
		{"no database", loaders.ErrNoDatabase, http.StatusOK, "disabled"},
		{"down", errors.New("connection refused"), http.StatusServiceUnavailable, "down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthController(stubPinger{err: tc.err})

			code, body := get(h.HealthCheck)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.database, body["database"])

			code, _ = get(h.Readiness)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestHealthWithNilClient(t *testing.T) {
	var db *loaders.PostgresClient
	code, body := get(NewHealthController(db).Readiness)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "disabled", body["database"])
}

func TestStatus(t *testing.T) {
	cfg := &config.Config{ServiceName: "flow-gateway", Environment: "test", GeminiAPIKeys: []string{"k"}}

	code, body := get(NewSystemController(cfg).Status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "flow-gateway", body["service"])
	integrations := body["integrations"].(map[string]any)
	assert.Equal(t, true, integrations["ai_messages"])
	assert.Equal(t, false, integrations["database"])
}
