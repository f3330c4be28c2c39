package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/go-interview/internal/database"
	"github.com/stretchr/testify/assert"
)

var testKey = []byte("test-signing-key")

func TestTokenFromRequest(t *testing.T) {
	tcases := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
	}{
		{
			name:     "no credential",
			setup:    func(r *http.Request) {},
			expected: "",
		},
		{
			name: "bearer header",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer abc")
			},
			expected: "abc",
		},
		{
			name: "cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookieKey, Value: "from-cookie"})
			},
			expected: "from-cookie",
		},
		{
			name: "query parameter",
			setup: func(r *http.Request) {
				r.URL.RawQuery = "token=from-query"
			},
			expected: "from-query",
		},
		{
			name: "header wins over cookie",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer abc")
				r.AddCookie(&http.Cookie{Name: TokenCookieKey, Value: "from-cookie"})
			},
			expected: "abc",
		},
		{
			name: "non bearer header is ignored",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
			expected: "",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			tc.setup(req)
			assert.Equal(t, tc.expected, TokenFromRequest(req))
		})
	}
}

func TestResolve(t *testing.T) {
	repo := database.NewMemInterviewRepository()
	repo.AddAccount(database.User{Id: "u-1", Username: "alice"})
	resolver := NewResolver(testKey, repo)

	t.Run("valid token", func(t *testing.T) {
		token, err := NewToken(testKey, "u-1", time.Hour)
		assert.NoError(t, err)

		user, err := resolver.Resolve(context.Background(), token)
		assert.NoError(t, err)
		assert.Equal(t, "u-1", user.Id)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		token, _ := NewToken([]byte("other-key"), "u-1", time.Hour)
		_, err := resolver.Resolve(context.Background(), token)
		assert.Error(t, err, "expected signature check to fail")
	})

	t.Run("expired token", func(t *testing.T) {
		token, _ := NewToken(testKey, "u-1", -time.Hour)
		_, err := resolver.Resolve(context.Background(), token)
		assert.Error(t, err, "expected expired token to be rejected")
	})

	t.Run("unknown account", func(t *testing.T) {
		token, _ := NewToken(testKey, "u-2", time.Hour)
		_, err := resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("missing id claim", func(t *testing.T) {
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(testKey)
		_, err := resolver.Resolve(context.Background(), token)
		assert.Error(t, err, "expected missing id claim to be rejected")
	})
}

func TestResolveRequest(t *testing.T) {
	repo := database.NewMemInterviewRepository()
	repo.AddAccount(database.User{Id: "u-1", Username: "alice"})
	resolver := NewResolver(testKey, repo)

	token, _ := NewToken(testKey, "u-1", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)

	user, err := resolver.ResolveRequest(req)
	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}
