package result

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_OK_WritesJSONBody(t *testing.T) {
	assert := assert.New(t)

	r := OK(map[string]string{"hello": "world"}, "fetched %s", "thing")
	assert.Equal(http.StatusOK, r.Status)
	assert.False(r.IsErr)

	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(http.StatusOK, w.Code)
	assert.Equal("application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal("world", body["hello"])
}

func Test_NotFound_IsErrAndWritesErrorResponse(t *testing.T) {
	assert := assert.New(t)

	r := NotFound("grammar %s missing", "abc")
	assert.True(r.IsErr)
	assert.Equal(http.StatusNotFound, r.Status)

	w := httptest.NewRecorder()
	r.WriteResponse(w)

	var body ErrorResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(http.StatusNotFound, body.Status)
}

func Test_Unauthorized_SetsWWWAuthenticateHeader(t *testing.T) {
	assert := assert.New(t)

	r := Unauthorized("")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(`Bearer realm="prismd"`, w.Header().Get("WWW-Authenticate"))
}

func Test_NoContent_WritesNoBody(t *testing.T) {
	assert := assert.New(t)

	r := NoContent()
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(http.StatusNoContent, w.Code)
	assert.Empty(w.Body.Bytes())
}

func Test_WithHeader_AddsHeaderOnWrite(t *testing.T) {
	assert := assert.New(t)

	r := OK(nil).WithHeader("X-Custom", "value")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal("value", w.Header().Get("X-Custom"))
}

func Test_TextErr_WritesPlainText(t *testing.T) {
	assert := assert.New(t)

	r := TextErr(http.StatusInternalServerError, "boom", "panic recovered")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal("text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal("boom", w.Body.String())
}
