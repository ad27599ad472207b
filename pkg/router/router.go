package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/badge-minter/config"
	"github.com/questx-lab/badge-minter/pkg/logger"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. It may enrich the context, or stop
// the request by returning an error.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the handler, whether it failed or not.
type CloserFunc func(ctx context.Context)

type Router struct {
	engine *gin.Engine
	inner  gin.IRouter

	db      *gorm.DB
	configs config.Configs
	logger  logger.Logger

	befores []MiddlewareFunc
	closers []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{
		engine:  engine,
		inner:   engine,
		db:      db,
		configs: cfg,
		logger:  logger,
	}
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

// Branch returns a router sharing the routes of r. Middlewares added to the
// branch do not affect r.
func (r *Router) Branch() *Router {
	clone := *r
	clone.befores = append([]MiddlewareFunc{}, r.befores...)
	clone.closers = append([]CloserFunc{}, r.closers...)
	return &clone
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) AddCloser(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) newContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	ctx = xcontext.WithConfigs(ctx, r.configs)
	ctx = xcontext.WithLogger(ctx, r.logger)
	ctx = xcontext.WithDB(ctx, r.db)
	ctx = xcontext.WithHTTPRequest(ctx, c.Request)
	return ctx
}
