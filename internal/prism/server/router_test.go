package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/plog"
	"github.com/prismlang/prism/internal/prism/psvc"
	"github.com/prismlang/prism/internal/prism/store/memstore"
)

var testSecret = []byte("super-secret-test-key-at-least-32-bytes-long")

func newTestServer(t *testing.T) (*httptest.Server, psvc.Service) {
	backend := psvc.Service{DB: memstore.New()}
	router := NewRouter(backend, testSecret, 0, plog.Default())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, backend
}

func jsonRequest(t *testing.T, method, url, token string, body interface{}) *http.Response {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("could not marshal request body: %s", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("could not build request: %s", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %s", err)
	}
	return resp
}

func Test_Router_GetInfo_Anonymous(t *testing.T) {
	assert := assert.New(t)
	srv, _ := newTestServer(t)

	resp := jsonRequest(t, http.MethodGet, srv.URL+PathPrefix+"/info", "", nil)
	defer resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)

	var info InfoModel
	assert.NoError(json.NewDecoder(resp.Body).Decode(&info))
	assert.NotEmpty(info.Version.Server)
}

func Test_Router_CreateGrammar_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := jsonRequest(t, http.MethodPost, srv.URL+PathPrefix+"/grammars", "", CreateGrammarRequest{
		Name:   "greeting",
		Source: `rule start = "hello";`,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func Test_Router_FullGrammarAndParseLifecycle(t *testing.T) {
	assert := assert.New(t)
	srv, backend := newTestServer(t)
	ctx := context.Background()

	_, err := backend.Register(ctx, "alice", "password123")
	if !assert.NoError(err) {
		return
	}

	loginResp := jsonRequest(t, http.MethodPost, srv.URL+PathPrefix+"/login", "", LoginRequest{
		Username: "alice",
		Password: "password123",
	})
	defer loginResp.Body.Close()
	if !assert.Equal(http.StatusCreated, loginResp.StatusCode) {
		return
	}
	var login LoginResponse
	assert.NoError(json.NewDecoder(loginResp.Body).Decode(&login))
	assert.NotEmpty(login.Token)

	createResp := jsonRequest(t, http.MethodPost, srv.URL+PathPrefix+"/grammars", login.Token, CreateGrammarRequest{
		Name:   "greeting",
		Source: `rule start = "hello";`,
	})
	defer createResp.Body.Close()
	if !assert.Equal(http.StatusCreated, createResp.StatusCode) {
		return
	}
	var grammar GrammarModel
	assert.NoError(json.NewDecoder(createResp.Body).Decode(&grammar))
	assert.Equal("greeting", grammar.Name)

	getResp := jsonRequest(t, http.MethodGet, srv.URL+PathPrefix+"/grammars/"+grammar.ID, "", nil)
	defer getResp.Body.Close()
	assert.Equal(http.StatusOK, getResp.StatusCode)

	parseResp := jsonRequest(t, http.MethodPost, srv.URL+PathPrefix+"/parses", login.Token, CreateParseRequest{
		GrammarID: grammar.ID,
		Rule:      "start",
		Input:     "hello",
	})
	defer parseResp.Body.Close()
	if !assert.Equal(http.StatusCreated, parseResp.StatusCode) {
		return
	}
	var parse ParseModel
	assert.NoError(json.NewDecoder(parseResp.Body).Decode(&parse))
	assert.Equal("start", parse.Rule)
}
