package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyabroad-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Tokens: staticTokens("abc")})
	var out map[string]string
	require.NoError(t, c.Get(context.Background(), "/profile/", &out))

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Len(t, gotRequestID, 36)
	assert.Equal(t, "ok", out["status"])
}

func TestClient_NoTokenSendsAnonymous(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Tokens: staticTokens("")})
	require.NoError(t, c.Post(context.Background(), "/x", map[string]int{"a": 1}, nil))
	assert.Empty(t, gotAuth)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    errors.ErrorCode
		wantMessage string
	}{
		{
			name:        "400 uses detail",
			status:      400,
			body:        `{"detail":"GPA must be between 0 and 4"}`,
			wantCode:    errors.ErrCodeServerRejected,
			wantMessage: "GPA must be between 0 and 4",
		},
		{
			name:        "400 without detail",
			status:      400,
			body:        `{}`,
			wantCode:    errors.ErrCodeServerRejected,
			wantMessage: "Invalid request. Please check your input.",
		},
		{
			name:        "422 joins pydantic messages",
			status:      422,
			body:        `{"detail":[{"msg":"field required"},{"msg":"value is not a valid float"}]}`,
			wantCode:    errors.ErrCodeServerRejected,
			wantMessage: "field required. value is not a valid float",
		},
		{
			name:        "500 falls back to status",
			status:      500,
			body:        `oops`,
			wantCode:    errors.ErrCodeServerRejected,
			wantMessage: "Request failed with status 500",
		},
		{
			name:        "404 uses message",
			status:      404,
			body:        `{"message":"University not found"}`,
			wantCode:    errors.ErrCodeServerRejected,
			wantMessage: "University not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(Options{BaseURL: srv.URL}).Get(context.Background(), "/universities/recommend", nil)
			require.Error(t, err)

			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantMessage, stdErr.Message)
			assert.Equal(t, tt.status, stdErr.Metadata["status"])
		})
	}
}

func TestClient_UnauthorizedHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var calls []string
	c := NewClient(Options{
		BaseURL: srv.URL,
		OnUnauthorized: func(_ context.Context, path string) {
			calls = append(calls, path)
		},
	})

	err := c.Get(context.Background(), "/profile/", nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))

	err = c.Post(context.Background(), "/auth/login", nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))

	assert.Equal(t, []string{"/profile/"}, calls)
}

func TestClient_NetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second})
	err := c.Get(context.Background(), "/profile/", nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNetworkUnreachable))
}
