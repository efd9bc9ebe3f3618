package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/southern-apparels/sa-erp/internal/access"
	audithttp "github.com/southern-apparels/sa-erp/internal/audit/http"
	"github.com/southern-apparels/sa-erp/internal/auth"
	"github.com/southern-apparels/sa-erp/internal/gate"
	"github.com/southern-apparels/sa-erp/internal/navigation"
	"github.com/southern-apparels/sa-erp/internal/observability"
	"github.com/southern-apparels/sa-erp/internal/routes"
	"github.com/southern-apparels/sa-erp/internal/samples"
	"github.com/southern-apparels/sa-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Proxy             http.Handler
	AuthService       *auth.Service
	AuthHandler       *auth.Handler
	NavigationHandler *navigation.Handler
	SamplesHandler    *samples.Handler
	AuditHandler      *audithttp.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
	SPA               fs.FS
}

// NewRouter constructs the chi.Router with gateway defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.Proxy != nil {
		r.Handle(routes.APIPrefix+"/*", params.Proxy)
	}

	guard := access.Middleware{Logger: params.Logger}

	r.Group(func(r chi.Router) {
		for _, mw := range LocalMiddleware(params.Config) {
			r.Use(mw)
		}
		if params.AuthService != nil {
			r.Use(params.AuthService.LoadUser(params.Logger))
		}
		r.Use(gate.Middleware(params.Logger))

		r.Route("/dashboard/api", func(r chi.Router) {
			if params.AuthHandler != nil {
				r.Route("/auth", params.AuthHandler.MountRoutes)
			}
			if params.NavigationHandler != nil {
				params.NavigationHandler.MountRoutes(r)
			}
			if params.SamplesHandler != nil {
				r.Method(http.MethodGet, "/openapi.json", params.SamplesHandler.Document())
				r.Route("/samples", func(r chi.Router) {
					r.Use(guard.RequireAny(access.SampleDepartment))
					params.SamplesHandler.MountRoutes(r)
				})
			}
			r.Group(func(r chi.Router) {
				r.Use(guard.RequireSuperuser)
				if params.AuditHandler != nil {
					params.AuditHandler.MountRoutes(r)
				}
				if params.JobHandler != nil {
					r.Route("/jobs", params.JobHandler.MountRoutes)
				}
			})
		})

		spa := params.SPA
		if spa == nil {
			spa = SPAFiles(params.Config)
		}
		pages := SPAHandler(spa)
		r.With(guard.RedirectUnlessRoute(routes.Dashboard)).Handle("/dashboard", pages)
		r.With(guard.RedirectUnlessRoute(routes.Dashboard)).Handle("/dashboard/*", pages)
		r.Handle("/*", pages)
	})

	return r
}
