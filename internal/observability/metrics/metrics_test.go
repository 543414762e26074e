package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

func TestImportMetrics_Lifecycle(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewImportMetrics(registry)
	require.NoError(t, err)

	m.ImportStarted()
	m.ImportStarted()
	assert.InDelta(t, 2, testutil.ToFloat64(m.importsInFlight), 0)

	m.StageCompleted(core.PhaseNormalized, 5*time.Millisecond)
	m.StageCompleted(core.PhaseValidated, time.Millisecond)
	m.RowsAdded(1, 1, 2)
	m.ImportFinished(core.ImportSucceeded, "", 20*time.Millisecond)
	m.ImportFinished(core.ImportFailed, core.KindValidation, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.importsStarted), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.importsInFlight), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.importsFinished.WithLabelValues("succeeded", "none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.importsFinished.WithLabelValues("failed", "validation")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.rowsAdded.WithLabelValues(TableSharks)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.rowsAdded.WithLabelValues(TableBeaches)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.rowsAdded.WithLabelValues(TableCatches)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.stageDuration))
}

func TestImportMetrics_ReportCache(t *testing.T) {
	m, err := NewImportMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ReportCacheLookup(false)
	m.ReportCacheLookup(true)
	m.ReportCacheLookup(true)

	assert.InDelta(t, 2, testutil.ToFloat64(m.reportCacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reportCacheLookups.WithLabelValues("miss")), 0)
}

func TestNewImportMetrics_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewImportMetrics(registry)
	require.NoError(t, err)

	_, err = NewImportMetrics(registry)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	registry, m, err := NewDefaultRegistry()
	require.NoError(t, err)
	m.ImportStarted()

	srv := httptest.NewServer(Handler(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "sharkguard_imports_started_total 1"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
