package server

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prismlang/prism/internal/prism/plog"
	"github.com/prismlang/prism/internal/prism/psvc"
	"github.com/prismlang/prism/internal/prism/server/middle"
)

// PathPrefix is the prefix every route is mounted under.
const PathPrefix = "/api/v1"

// NewRouter assembles prismd's chi.Router: open GET endpoints, bearer-JWT-
// gated POST endpoints for grammars/parses, grounded on server/endpoints.go's
// mounting of server/api's API.HTTP* handlers.
func NewRouter(backend psvc.Service, secret []byte, unauthDelay time.Duration, log *plog.Logger) chi.Router {
	api := API{
		Backend:     backend,
		Secret:      secret,
		UnauthDelay: unauthDelay,
		Log:         log,
	}

	r := chi.NewRouter()
	r.Use(middle.DontPanic())

	r.Route(PathPrefix, func(r chi.Router) {
		r.With(middle.OptionalAuth(backend.DB.Users(), secret, unauthDelay)).Get("/info", api.HTTPGetInfo())
		r.Post("/login", api.HTTPLogin())

		r.Get("/grammars/{id}", api.HTTPGetGrammar())
		r.Get("/parses/{id}", api.HTTPGetParse())

		r.Group(func(r chi.Router) {
			r.Use(middle.RequireAuth(backend.DB.Users(), secret, unauthDelay))
			r.Post("/grammars", api.HTTPCreateGrammar())
			r.Post("/grammars/{id}/adapt", api.HTTPAdaptGrammar())
			r.Post("/parses", api.HTTPCreateParse())
		})
	})

	return r
}
