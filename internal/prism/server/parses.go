package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/server/middle"
	"github.com/prismlang/prism/internal/prism/server/result"
	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/store"
)

func toParseModel(rec store.ParseRecord) ParseModel {
	m := ParseModel{
		ID:          rec.ID.String(),
		GrammarID:   rec.GrammarID.String(),
		Rule:        rec.Rule,
		Diagnostics: rec.Diagnostics,
		Created:     rec.Created.Format(rfc3339),
	}
	if len(rec.ResultJSON) > 0 {
		var v interface{}
		if err := json.Unmarshal(rec.ResultJSON, &v); err == nil {
			m.Result = v
		}
	}
	return m
}

// HTTPCreateParse returns the handler for POST /parses.
func (api API) HTTPCreateParse() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateParse)
}

func (api API) epCreateParse(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(store.UserRecord)

	var body CreateParseRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if body.Rule == "" {
		return result.BadRequest("rule: property is empty or missing from request", "empty rule")
	}

	grammarID, err := uuid.Parse(body.GrammarID)
	if err != nil {
		return result.BadRequest("grammarId is not a valid identifier", err.Error())
	}

	rec, err := api.Backend.RunParse(req.Context(), user.ID, grammarID, body.Rule, body.Input)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(toParseModel(rec), "user %q ran rule %q against grammar %s", user.Username, body.Rule, body.GrammarID)
}

// HTTPGetParse returns the handler for GET /parses/{id}.
func (api API) HTTPGetParse() http.HandlerFunc {
	return api.httpEndpoint(api.epGetParse)
}

func (api API) epGetParse(req *http.Request) result.Result {
	id, err := requireIDParam(req)
	if err != nil {
		return result.BadRequest("id is not a valid identifier", err.Error())
	}

	rec, err := api.Backend.GetParse(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(toParseModel(rec), "retrieved parse result %s", rec.ID)
}
