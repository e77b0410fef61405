package server

import (
	"errors"
	"net/http"

	"github.com/prismlang/prism/internal/prism/server/result"
	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/server/token"
)

// HTTPLogin returns the handler for POST /login.
func (api API) HTTPLogin() http.HandlerFunc {
	return api.httpEndpoint(api.epLogin)
}

func (api API) epLogin(req *http.Request) result.Result {
	var loginData LoginRequest
	if err := parseJSON(req, &loginData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if loginData.Username == "" {
		return result.BadRequest("username: property is empty or missing from request", "empty username")
	}
	if loginData.Password == "" {
		return result.BadRequest("password: property is empty or missing from request", "empty password")
	}

	user, err := api.Backend.Login(req.Context(), loginData.Username, loginData.Password)
	if err != nil {
		if errors.Is(err, serr.ErrBadCredentials) {
			return result.Unauthorized(serr.ErrBadCredentials.Error(), "user %q: %s", loginData.Username, err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	tok, err := token.Generate(api.Secret, user)
	if err != nil {
		return result.InternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{Token: tok, UserID: user.ID.String()}
	return result.Created(resp, "user %q successfully logged in", user.Username)
}
