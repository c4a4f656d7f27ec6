package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTokenCreated(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.TokensCreated.WithLabelValues("combined", "success"))
	RecordTokenCreated("combined", "success")
	after := testutil.ToFloat64(DefaultMetrics.TokensCreated.WithLabelValues("combined", "success"))
	assert.Equal(t, before+1, after)
}

func TestRecordPin_CountsBytesOnlyOnSuccess(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.PinnedBytes)
	RecordPin("image", "ok", 100, 0.1)
	RecordPin("image", "error", 50, 0.1)
	assert.Equal(t, before+100, testutil.ToFloat64(DefaultMetrics.PinnedBytes))
}

func TestRecordDBQuery_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "insert"))
	RecordDBQuery("postgres", "insert", 0.01, nil)
	RecordDBQuery("postgres", "insert", 0.01, errors.New("boom"))
	after := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "insert"))
	assert.Equal(t, before+1, after)
}

func TestHandler_ExposesNamespace(t *testing.T) {
	RecordOperation("balance", "ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "solana_token_minter_operations_total"))
}
