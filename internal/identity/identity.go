package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/go-interview/internal/database"
	"github.com/npezzotti/go-interview/internal/types"
)

const (
	idClaim  = "id"
	expClaim = "exp"

	TokenCookieKey = "token"
	TokenQueryKey  = "token"
)

var ErrNoToken = errors.New("no credential presented")

// AccountLookup is the read-only slice of the account directory the
// resolver needs.
type AccountLookup interface {
	GetAccountById(ctx context.Context, id string) (database.User, error)
}

type Resolver struct {
	signingKey []byte
	accounts   AccountLookup
}

func NewResolver(signingKey []byte, accounts AccountLookup) *Resolver {
	return &Resolver{
		signingKey: signingKey,
		accounts:   accounts,
	}
}

// TokenFromRequest looks for a credential in the Authorization header, the
// token cookie and the token query parameter, in that order.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if c, err := r.Cookie(TokenCookieKey); err == nil && c.Value != "" {
		return c.Value
	}

	return r.URL.Query().Get(TokenQueryKey)
}

// Resolve verifies the credential and returns the account it names.
func (r *Resolver) Resolve(ctx context.Context, tokenString string) (*types.User, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	userId, err := r.userIdFromToken(tokenString)
	if err != nil {
		return nil, err
	}

	account, err := r.accounts.GetAccountById(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("lookup account %s: %w", userId, err)
	}

	return &types.User{Id: account.Id, Username: account.Username}, nil
}

// ResolveRequest is Resolve applied to the credential carried by r.
func (r *Resolver) ResolveRequest(req *http.Request) (*types.User, error) {
	return r.Resolve(req.Context(), TokenFromRequest(req))
}

func (r *Resolver) userIdFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	switch id := claims[idClaim].(type) {
	case string:
		if id == "" {
			return "", fmt.Errorf("empty id claim")
		}
		return id, nil
	case float64:
		return strconv.FormatInt(int64(id), 10), nil
	default:
		return "", fmt.Errorf("invalid id claim")
	}
}

// NewToken signs a token naming userId. The service never issues tokens on
// its own; this exists for tooling and tests.
func NewToken(signingKey []byte, userId string, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		idClaim:  userId,
		expClaim: time.Now().Add(exp).Unix(),
	})

	return token.SignedString(signingKey)
}
