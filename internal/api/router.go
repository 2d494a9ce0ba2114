package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/viewday/vaultsync/internal/bridge"
	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/sync"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(engine *sync.Engine, mgr *settings.Manager, disp *bridge.Dispatcher, authEnabled bool, token string) chi.Router {
	h := NewHandler(engine, mgr, disp)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/rules", h.GetRules)
	r.Put("/rules", h.PutRules)
	r.Get("/calendar", h.GetCalendar)
	r.Get("/linked-notes", h.GetLinkedNotes)
	r.Post("/unscheduled", h.PostUnscheduled)

	return r
}
