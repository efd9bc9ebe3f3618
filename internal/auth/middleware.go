package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/southern-apparels/sa-erp/internal/access"
)

type tokenKey struct{}

// TokenFromRequest returns the bearer token from the Authorization header or the
// auth_token cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithToken stores the bearer token on the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token placed by LoadUser.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// LoadUser resolves the signed-in user and places it with its token on the request
// context. Requests without a valid token pass through anonymously.
func (s *Service) LoadUser(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithToken(r.Context(), token)
			user, err := s.Me(ctx, token)
			if err != nil {
				logger.Debug("resolve session user", slog.String("path", r.URL.Path), slog.Any("error", err))
			} else {
				ctx = access.WithUser(ctx, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor names the user behind a request for the audit trail.
func (s *Service) Actor(r *http.Request) string {
	if user := access.UserFromContext(r.Context()); user != nil {
		return user.Username
	}
	token := TokenFromRequest(r)
	if token == "" {
		return ""
	}
	user, err := s.store.Get(r.Context(), token)
	if err != nil {
		return ""
	}
	return user.Username
}
