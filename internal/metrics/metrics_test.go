package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/health", "/health"},
		{"/api/sessions/6f1c1a3e-8a55-4b43-9f1e-1a2b3c4d5e6f/complete", "/api/sessions/:id/complete"},
		{"/api/collectibles/6f1c1a3e-8a55-4b43-9f1e-1a2b3c4d5e6f", "/api/collectibles/:id"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, canonicalPath(tc.raw))
		})
	}
}

func TestInstrumentHandler(t *testing.T) {
	handler := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/brew", "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/brew", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/brew", "418")))
}

func TestRecordLedgerEntry(t *testing.T) {
	credits := testutil.ToFloat64(ledgerVolume.WithLabelValues("test_source", "credit"))
	debits := testutil.ToFloat64(ledgerVolume.WithLabelValues("test_source", "debit"))

	RecordLedgerEntry("test_source", 40)
	RecordLedgerEntry("test_source", -15)

	assert.Equal(t, credits+40, testutil.ToFloat64(ledgerVolume.WithLabelValues("test_source", "credit")))
	assert.Equal(t, debits+15, testutil.ToFloat64(ledgerVolume.WithLabelValues("test_source", "debit")))
}

func TestHandlerExposesEconomyMetrics(t *testing.T) {
	RecordSessionTransition("completed")
	RecordCollectibleMinted("golden")
	RecordGenerationRun(0, true)
	ObserveQualityScore(85)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"sheepify_sessions_transitions_total",
		"sheepify_collectibles_minted_total",
		"sheepify_generation_runs_total",
		"sheepify_sessions_quality_score",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}

}
