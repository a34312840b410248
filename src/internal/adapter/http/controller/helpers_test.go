package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/middleware"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/gorilla/mux"
)

const (
	channelID  = "ops-console"
	channelKey = "console-key-001"
)

type registrar interface {
	RegisterRoutes(router *mux.Router, authMiddleware mux.MiddlewareFunc)
}

func newRouter(c registrar) *mux.Router {
	r := mux.NewRouter()
	c.RegisterRoutes(r, middleware.BasicAuth(channelID, channelKey))
	return r
}

func do(t *testing.T, handler http.Handler, method, target string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		payload.WriteString(v)
	default:
		if err := json.NewEncoder(&payload).Encode(v); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &payload)
	if authed {
		req.SetBasicAuth(channelID, channelKey)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) commons.Response[T] {
	t.Helper()

	var out commons.Response[T]
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}
