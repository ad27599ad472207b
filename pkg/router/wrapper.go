package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/badge-minter/pkg/errorx"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := router.newContext(c)

		var resp *Response
		ctx, err := runBefores(ctx, router.befores)
		if err == nil {
			var req Request
			if err = bind(c, method, &req); err == nil {
				resp, err = handler(ctx, &req)
			}
		}

		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			c.JSON(http.StatusOK, newErrorResponse(err))
		} else {
			c.JSON(http.StatusOK, newResponse(resp))
		}

		for _, closer := range router.closers {
			closer(ctx)
		}
	}
}

func runBefores(ctx context.Context, befores []MiddlewareFunc) (context.Context, error) {
	for _, before := range befores {
		newCtx, err := before(ctx)
		if err != nil {
			return ctx, err
		}

		if newCtx != nil {
			ctx = newCtx
		}
	}

	return ctx, nil
}

func bind(c *gin.Context, method string, req any) error {
	var err error
	switch method {
	case http.MethodGet:
		err = c.ShouldBindQuery(req)
	case http.MethodPost:
		err = c.ShouldBindJSON(req)
	default:
		return errorx.New(errorx.BadRequest, "Unsupported method %s", method)
	}

	if err != nil {
		return errorx.New(errorx.BadRequest, "Invalid request: %v", err)
	}

	return nil
}
