package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/questx-lab/badge-minter/internal/common"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	common.PromCounters[common.MintResultsTotal].WithLabelValues("success", "").Inc()

	recorder := httptest.NewRecorder()
	NewHandler("worker").ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), common.MintResultsTotal)
	require.Contains(t, recorder.Body.String(), `service="worker"`)
}
