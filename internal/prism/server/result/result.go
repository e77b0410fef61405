// Package result holds the HTTP response value handlers build and return,
// grounded on server/result: a Result carries everything needed to write
// an HTTP response (status, JSON/text body, headers) separately from
// actually writing it, so handlers stay pure functions of request -> Result.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prismlang/prism/internal/prism/plog"
)

// ErrorResponse is the JSON body of any non-2xx Result.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusOK, respObj, fmtMsg("OK", internalMsg))
}

func NoContent(internalMsg ...interface{}) Result {
	return Response(http.StatusNoContent, nil, fmtMsg("no content", internalMsg))
}

func Created(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusCreated, respObj, fmtMsg("created", internalMsg))
}

func Conflict(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusConflict, userMsg, fmtMsg("conflict", internalMsg))
}

func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusBadRequest, userMsg, fmtMsg("bad request", internalMsg))
}

func NotFound(internalMsg ...interface{}) Result {
	return Err(http.StatusNotFound, "The requested resource was not found", fmtMsg("not found", internalMsg))
}

func Forbidden(internalMsg ...interface{}) Result {
	return Err(http.StatusForbidden, "You don't have permission to do that", fmtMsg("forbidden", internalMsg))
}

func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}
	return Err(http.StatusUnauthorized, userMsg, fmtMsg("unauthorized", internalMsg)).
		WithHeader("WWW-Authenticate", `Bearer realm="prismd"`)
}

func InternalServerError(internalMsg ...interface{}) Result {
	return Err(http.StatusInternalServerError, "An internal server error occurred", fmtMsg("internal server error", internalMsg))
}

func fmtMsg(def string, args []interface{}) string {
	if len(args) == 0 {
		return def
	}
	format, ok := args[0].(string)
	if !ok {
		return def
	}
	return fmt.Sprintf(format, args[1:]...)
}

// Response builds a successful JSON Result. respObj must not be nil unless
// status is http.StatusNoContent.
func Response(status int, respObj interface{}, internalMsg string) Result {
	return Result{IsJSON: true, Status: status, InternalMsg: internalMsg, resp: respObj}
}

// Err builds a JSON error Result whose body is an ErrorResponse{userMsg}.
func Err(status int, userMsg, internalMsg string) Result {
	return Result{
		IsJSON:      true,
		IsErr:       true,
		Status:      status,
		InternalMsg: internalMsg,
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

// TextErr is like Err but writes the body as plain text, for handlers that
// must respond even when JSON encoding itself may have failed (panic
// recovery).
func TextErr(status int, userMsg, internalMsg string) Result {
	return Result{IsJSON: false, IsErr: true, Status: status, InternalMsg: internalMsg, resp: userMsg}
}

// Result is the value returned by an API handler function. It is written
// to the wire by WriteResponse, and logged by Log; the two are separate
// calls so the logging can happen before the (possibly slow, on
// unauthorized/forbidden/500 responses) delayed write.
type Result struct {
	Status      int
	IsErr       bool
	IsJSON      bool
	InternalMsg string

	resp interface{}
	hdrs [][2]string
}

func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.hdrs = append(append([][2]string{}, r.hdrs...), [2]string{name, val})
	return cp
}

// marshaledBody JSON-encodes r.resp ahead of time so a marshal failure can
// be turned into a clean 500 instead of a panic mid write. Only called for
// JSON results with a body; callers must not invoke it for NoContent or
// plain-text results.
func (r Result) marshaledBody() ([]byte, error) {
	return json.Marshal(r.resp)
}

// WriteResponse writes r to w. If JSON-marshaling the body fails, a
// generic 500 is written instead.
func (r Result) WriteResponse(w http.ResponseWriter) {
	var body []byte

	if r.IsJSON {
		w.Header().Set("Content-Type", "application/json")
		if r.Status != http.StatusNoContent {
			marshaled, err := r.marshaledBody()
			if err != nil {
				fallback := Err(http.StatusInternalServerError, "An internal server error occurred",
					"could not marshal JSON response: "+err.Error())
				fallback.WriteResponse(w)
				return
			}
			body = marshaled
		}
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if r.Status != http.StatusNoContent {
			body = []byte(fmt.Sprintf("%v", r.resp))
		}
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")

	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}

	w.WriteHeader(r.Status)
	if r.Status != http.StatusNoContent {
		w.Write(body)
	}
}

// Log reports r's outcome to log, grouping anything 4xx/5xx under Warn/Error
// and everything else under Info, mirroring server/response.go's
// logHttpResponse split between an "ERROR" and "INFO" log level per request.
func (r Result) Log(log *plog.Logger, method, path, remoteAddr string) {
	kv := []any{"method", method, "path", path, "status", r.Status, "remote", remoteAddr, "msg", r.InternalMsg}
	if r.IsErr {
		log.Error("request failed", kv...)
	} else {
		log.Info("request handled", kv...)
	}
}
