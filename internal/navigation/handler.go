package navigation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/southern-apparels/sa-erp/internal/access"
	"github.com/southern-apparels/sa-erp/internal/platform/httpx"
	"github.com/southern-apparels/sa-erp/internal/routes"
)

// Handler serves the sidebar and the route table to the bundle.
type Handler struct{}

// NewHandler builds the navigation handler.
func NewHandler() *Handler { return &Handler{} }

// MountRoutes registers GET /nav and GET /routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/nav", h.handleNav)
	r.Get("/routes", h.handleRoutes)
}

func (h *Handler) handleNav(w http.ResponseWriter, r *http.Request) {
	user := access.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	groups := Filter(Menu(), user)
	if path := r.URL.Query().Get("path"); path != "" {
		groups = MarkActive(groups, path)
	}
	httpx.JSON(w, http.StatusOK, groups)
}

func (h *Handler) handleRoutes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, routes.Links())
}
