package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/questx-lab/badge-minter/config"
	"github.com/questx-lab/badge-minter/pkg/errorx"
	"github.com/questx-lab/badge-minter/pkg/logger"
	"github.com/questx-lab/badge-minter/pkg/router"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name string `form:"name" json:"name" binding:"required"`
}

type echoResponse struct {
	Greeting string `json:"greeting"`
}

type body struct {
	Code  int64         `json:"code"`
	Error string        `json:"error"`
	Data  *echoResponse `json:"data"`
}

func echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	if req.Name == "nobody" {
		return nil, errorx.New(errorx.NotFound, "Not found %s", req.Name)
	}

	if req.Name == "crash" {
		return nil, errors.New("database is down")
	}

	return &echoResponse{Greeting: "hello " + req.Name}, nil
}

func newRouter() *router.Router {
	r := router.New(nil, config.Configs{Env: "test"}, logger.NewNopLogger())
	router.GET(r, "/echo", echo)
	router.POST(r, "/echo", echo)
	return r
}

func serve(t *testing.T, r *router.Router, req *http.Request) body {
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestRouter_GET(t *testing.T) {
	b := serve(t, newRouter(), httptest.NewRequest(http.MethodGet, "/echo?name=alice", nil))
	require.Zero(t, b.Code)
	require.Equal(t, "hello alice", b.Data.Greeting)
}

func TestRouter_POST(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"bob"}`))
	req.Header.Set("Content-Type", "application/json")

	b := serve(t, newRouter(), req)
	require.Zero(t, b.Code)
	require.Equal(t, "hello bob", b.Data.Greeting)
}

func TestRouter_Errors(t *testing.T) {
	r := newRouter()

	b := serve(t, r, httptest.NewRequest(http.MethodGet, "/echo", nil))
	require.Equal(t, int64(errorx.BadRequest), b.Code)

	b = serve(t, r, httptest.NewRequest(http.MethodGet, "/echo?name=nobody", nil))
	require.Equal(t, int64(errorx.NotFound), b.Code)
	require.Equal(t, "Not found nobody", b.Error)

	// Internal errors are not leaked.
	b = serve(t, r, httptest.NewRequest(http.MethodGet, "/echo?name=crash", nil))
	require.Equal(t, int64(errorx.Unknown.Code), b.Code)
	require.Equal(t, errorx.Unknown.Message, b.Error)
}

func TestRouter_Middlewares(t *testing.T) {
	r := newRouter()
	var closed []error

	branch := r.Branch()
	branch.Before(func(ctx context.Context) (context.Context, error) {
		if xcontext.HTTPRequest(ctx).URL.Query().Get("deny") != "" {
			return nil, errorx.New(errorx.BadRequest, "Denied")
		}

		return ctx, nil
	})
	branch.AddCloser(func(ctx context.Context) {
		closed = append(closed, xcontext.Error(ctx))
	})
	router.GET(branch, "/branch", echo)

	b := serve(t, r, httptest.NewRequest(http.MethodGet, "/branch?name=carol&deny=1", nil))
	require.Equal(t, int64(errorx.BadRequest), b.Code)
	require.Equal(t, "Denied", b.Error)

	b = serve(t, r, httptest.NewRequest(http.MethodGet, "/branch?name=carol", nil))
	require.Equal(t, "hello carol", b.Data.Greeting)

	require.Len(t, closed, 2)
	require.Error(t, closed[0])
	require.NoError(t, closed[1])

	// The root router has no closer.
	serve(t, r, httptest.NewRequest(http.MethodGet, "/echo?name=dave", nil))
	require.Len(t, closed, 2)
}
