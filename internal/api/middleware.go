package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/npezzotti/go-interview/internal/logging"
	"github.com/npezzotti/go-interview/internal/types"
	"github.com/rs/zerolog"
)

type userKey struct{}

func WithUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFrom(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(userKey{}).(types.User)
	return user, ok
}

func (s *InterviewApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.requestLog(r).Error().Err(panicError).Msg("panic")
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *InterviewApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.identity.ResolveRequest(r)
		if err != nil {
			s.requestLog(r).Debug().Err(err).Msg("rejecting unauthenticated request")
			s.writeError(w, r, NewUnauthorizedError())
			return
		}

		ctx := WithUser(r.Context(), *user)
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		ctx = s.requestLog(r).With().Str(logging.FieldUserID, user.Id).Logger().WithContext(ctx)
		next(w, r.WithContext(ctx))
	}
}

// requestLog prefers the request scoped logger set by the logging
// middleware.
func (s *InterviewApp) requestLog(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
