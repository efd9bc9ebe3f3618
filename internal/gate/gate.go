// Package gate redirects dashboard visitors by the presence of the auth_token cookie.
// It only looks at whether a token exists; validating it is the backend's job.
package gate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/southern-apparels/sa-erp/internal/platform/httpx"
	"github.com/southern-apparels/sa-erp/internal/routes"
)

const cookieName = "auth_token"

// APIPrefix marks the JSON endpoints that answer 401 instead of redirecting.
const APIPrefix = "/dashboard/api/"

var publicRoutes = []string{routes.Login, routes.Register, routes.ForgotPassword}

var publicAPI = []string{
	APIPrefix + "auth/login",
	APIPrefix + "auth/register",
	APIPrefix + "auth/forgot-password",
	APIPrefix + "auth/reset-password",
	APIPrefix + "auth/logout",
}

// Decision is the outcome for one request.
type Decision struct {
	Redirect     string
	Unauthorized bool
}

// Pass reports whether the request continues to the handler.
func (d Decision) Pass() bool { return d.Redirect == "" && !d.Unauthorized }

// IsPublic reports whether path is a sign-in page.
func IsPublic(path string) bool {
	for _, route := range publicRoutes {
		if strings.HasPrefix(path, route) {
			return true
		}
	}
	return false
}

// Decide applies the gate rules to a path.
func Decide(path string, hasToken bool) Decision {
	if strings.HasPrefix(path, APIPrefix) {
		for _, p := range publicAPI {
			if path == p {
				return Decision{}
			}
		}
		if !hasToken {
			return Decision{Unauthorized: true}
		}
		return Decision{}
	}
	public := IsPublic(path)
	if !public && strings.HasPrefix(path, "/dashboard") && !hasToken {
		return Decision{Redirect: routes.Login}
	}
	if public && hasToken {
		return Decision{Redirect: routes.Dashboard}
	}
	if path == routes.Home || path == "/dashboard" {
		if hasToken {
			return Decision{Redirect: routes.Dashboard}
		}
		return Decision{Redirect: routes.Login}
	}
	return Decision{}
}

// Middleware enforces Decide on every request it wraps.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			hasToken := false
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				hasToken = true
			}
			logger.Debug("gate",
				slog.String("path", path),
				slog.Bool("has_token", hasToken),
				slog.Bool("is_public", IsPublic(path)))

			d := Decide(path, hasToken)
			switch {
			case d.Unauthorized:
				httpx.RespondError(w, httpx.ErrUnauthorized)
			case d.Redirect != "":
				http.Redirect(w, r, d.Redirect, http.StatusTemporaryRedirect)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
