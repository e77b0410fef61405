// Package server is prismd's HTTP front door, grounded on server/endpoints.go
// and server/api: an API struct wrapping a psvc.Service, Endpoint-wrapping-
// result.Result handlers, JWT bearer auth populated by
// internal/prism/server/middle, and a go-chi/chi router assembled by
// NewRouter.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prismlang/prism/internal/prism/plog"
	"github.com/prismlang/prism/internal/prism/psvc"
	"github.com/prismlang/prism/internal/prism/server/result"
	"github.com/prismlang/prism/internal/prism/server/serr"
)

// API holds everything a handler needs: the service layer to call into,
// the JWT signing secret, the delay applied before unauthorized/forbidden/
// 500 responses (to deprioritize such requests), and a logger.
type API struct {
	Backend     psvc.Service
	Secret      []byte
	UnauthDelay time.Duration
	Log         *plog.Logger
}

// EndpointFunc is the signature every handler body is written against;
// httpEndpoint adapts one into an http.HandlerFunc.
type EndpointFunc func(req *http.Request) result.Result

func (api API) httpEndpoint(ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer api.panicTo500(w, req)
		r := ep(req)

		if r.Status == 0 {
			api.Log.Error("endpoint result was never populated", "path", req.URL.Path)
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		r.Log(api.Log, req.Method, req.URL.Path, remoteIP(req))

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w)
	}
}

func (api API) panicTo500(w http.ResponseWriter, req *http.Request) {
	if panicErr := recover(); panicErr != nil {
		api.Log.Error("handler panicked", "path", req.URL.Path, "panic", fmt.Sprint(panicErr))
		result.TextErr(http.StatusInternalServerError, "An internal server error occurred", "panic recovered").WriteResponse(w)
	}
}

func remoteIP(req *http.Request) string {
	parts := strings.SplitN(req.RemoteAddr, ":", 2)
	return parts[0]
}

// parseJSON decodes the request body as JSON into v, which must be a
// pointer. Returns a serr.Error wrapping serr.ErrBodyUnmarshal on failure,
// and restores req.Body so later middleware can still read it.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if !strings.EqualFold(contentType, "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}
	return nil
}
