package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-tune/internal/gateway"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultCancelled, Result(fmt.Errorf("open: %w", gateway.ErrCancelled)))
	assert.Equal(t, ResultError, Result(errors.New("boom")))
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition("adjust", nil)
	m.ObserveTransition("adjust", nil)
	m.ObserveTransition("open", gateway.ErrCancelled)
	m.ObserveRender(10*time.Millisecond, nil)
	m.ObserveRender(time.Millisecond, errors.New("bad"))
	m.ObserveStale()
	m.ObserveSave(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("adjust", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("open", ResultCancelled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stale))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues(ResultOK)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.renderDuration))
}

func TestMetrics_StaleExposition(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveStale()
	m.ObserveStale()

	expected := `
# HELP image_tune_stale_previews_total Finished renders dropped because a newer request superseded them.
# TYPE image_tune_stale_previews_total counter
image_tune_stale_previews_total 2
`
	require.NoError(t, testutil.CollectAndCompare(m.stale, strings.NewReader(expected)))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSave(errors.New("disk full"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `image_tune_saves_total{result="error"} 1`)
}

func TestNew_PanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
