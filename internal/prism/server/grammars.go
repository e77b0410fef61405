package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/server/middle"
	"github.com/prismlang/prism/internal/prism/server/result"
	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/store"
)

func requireIDParam(req *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(req, "id"))
}

func toGrammarModel(rec store.GrammarRecord) GrammarModel {
	m := GrammarModel{
		ID:      rec.ID.String(),
		Name:    rec.Name,
		Created: rec.Created.Format(rfc3339),
		OwnerID: rec.Owner.String(),
	}
	if rec.ParentID != nil {
		s := rec.ParentID.String()
		m.ParentID = &s
	}
	return m
}

// HTTPCreateGrammar returns the handler for POST /grammars.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateGrammar)
}

func (api API) epCreateGrammar(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(store.UserRecord)

	var body CreateGrammarRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if body.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty name")
	}

	rec, err := api.Backend.CreateGrammar(req.Context(), user.ID, body.Name, body.Source)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(toGrammarModel(rec), "user %q compiled grammar %q", user.Username, rec.Name)
}

// HTTPGetGrammar returns the handler for GET /grammars/{id}.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return api.httpEndpoint(api.epGetGrammar)
}

func (api API) epGetGrammar(req *http.Request) result.Result {
	id, err := requireIDParam(req)
	if err != nil {
		return result.BadRequest("id is not a valid identifier", err.Error())
	}

	rec, err := api.Backend.GetGrammar(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(toGrammarModel(rec), "retrieved grammar %q", rec.Name)
}

// HTTPAdaptGrammar returns the handler for POST /grammars/{id}/adapt.
func (api API) HTTPAdaptGrammar() http.HandlerFunc {
	return api.httpEndpoint(api.epAdaptGrammar)
}

func (api API) epAdaptGrammar(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(store.UserRecord)

	id, err := requireIDParam(req)
	if err != nil {
		return result.BadRequest("id is not a valid identifier", err.Error())
	}

	var body AdaptGrammarRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	rec, err := api.Backend.Adapt(req.Context(), user.ID, id, body.Source)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		if errors.Is(err, serr.ErrBadArgument) || errors.Is(err, serr.ErrGrammarCycle) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(toGrammarModel(rec), "user %q adapted grammar %q", user.Username, rec.Name)
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"
