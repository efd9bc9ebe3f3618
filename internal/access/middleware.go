package access

import (
	"log/slog"
	"net/http"

	"github.com/southern-apparels/sa-erp/internal/platform/httpx"
)

// Middleware guards handlers with department checks. It expects the user to be placed
// on the request context by the auth layer.
type Middleware struct {
	Logger *slog.Logger
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, user *User, reason string) {
	if user == nil {
		httpx.Detail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if m.Logger != nil {
		m.Logger.Debug("access denied",
			slog.String("path", r.URL.Path),
			slog.String("user", user.Username),
			slog.String("reason", reason))
	}
	httpx.Detail(w, http.StatusForbidden, "Access denied")
}

// RequireRoute checks the request path against the dashboard route table.
func (m Middleware) RequireRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if !CanAccessRoute(user, r.URL.Path) {
			m.deny(w, r, user, "route")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny lets the request through when the user holds at least one department.
func (m Middleware) RequireAny(depts ...Department) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if len(depts) == 0 && user != nil {
				next.ServeHTTP(w, r)
				return
			}
			for _, dept := range depts {
				if HasDepartmentAccess(user, dept) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, r, user, "department")
		})
	}
}

// RequireAll lets the request through only when the user holds every department.
func (m Middleware) RequireAll(depts ...Department) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				m.deny(w, r, nil, "anonymous")
				return
			}
			for _, dept := range depts {
				if !HasDepartmentAccess(user, dept) {
					m.deny(w, r, user, "department")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperuser restricts a handler to administrators.
func (m Middleware) RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || !user.IsSuperuser {
			m.deny(w, r, user, "superuser")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectUnlessRoute is RequireRoute for browser pages: a signed-in user without the
// department is sent to fallback. Anonymous requests pass; the auth gate owns them.
func (m Middleware) RedirectUnlessRoute(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user != nil && r.URL.Path != fallback && !CanAccessRoute(user, r.URL.Path) {
				if m.Logger != nil {
					m.Logger.Debug("page access redirected",
						slog.String("path", r.URL.Path),
						slog.String("user", user.Username))
				}
				http.Redirect(w, r, fallback, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
