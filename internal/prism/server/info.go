package server

import (
	"net/http"

	"github.com/prismlang/prism/internal/prism/server/middle"
	"github.com/prismlang/prism/internal/prism/server/result"
	"github.com/prismlang/prism/internal/prism/store"
	"github.com/prismlang/prism/internal/version"
)

// HTTPGetInfo returns the handler for GET /info.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return api.httpEndpoint(api.epGetInfo)
}

func (api API) epGetInfo(req *http.Request) result.Result {
	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.Prism = version.Current

	loggedIn, _ := req.Context().Value(middle.AuthLoggedIn).(bool)
	if loggedIn {
		user, _ := req.Context().Value(middle.AuthUser).(store.UserRecord)
		return result.OK(resp, "user %q retrieved API info", user.Username)
	}
	return result.OK(resp, "anonymous client retrieved API info")
}
