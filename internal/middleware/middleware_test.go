package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/questx-lab/badge-minter/internal/common"
	"github.com/questx-lab/badge-minter/pkg/errorx"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newRequestContext(path string) context.Context {
	ctx := xcontext.WithHTTPRequest(context.Background(), httptest.NewRequest(http.MethodGet, path, nil))
	ctx, _ = WithStartTime()(ctx)
	return ctx
}

func TestPrometheus(t *testing.T) {
	counter := common.PromCounters[common.HTTPRequestTotal]

	ctx := newRequestContext("/getMintAttempt")
	Prometheus()(ctx)
	Prometheus()(xcontext.WithError(ctx, errorx.New(errorx.NotFound, "Not found")))
	Prometheus()(xcontext.WithError(ctx, errors.New("boom")))

	require.Equal(t, 1.0, promtestutil.ToFloat64(counter.WithLabelValues("/getMintAttempt", "0")))
	require.Equal(t, 1.0, promtestutil.ToFloat64(counter.WithLabelValues("/getMintAttempt", "100004")))
	require.Equal(t, 1.0, promtestutil.ToFloat64(counter.WithLabelValues("/getMintAttempt", "-1")))
}

func TestWithStartTime(t *testing.T) {
	ctx := newRequestContext("/requestMint")
	require.WithinDuration(t, time.Now(), xcontext.StartTime(ctx), time.Second)

	// Logger never panics, with or without error.
	Logger()(ctx)
	Logger()(xcontext.WithError(ctx, errors.New("boom")))
}
