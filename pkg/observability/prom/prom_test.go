package prom

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hierbundle/pkg/observability"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OnParseComplete(ctx, "json", 12, time.Millisecond, nil)
	m.OnLayoutComplete(ctx, "bundle", time.Millisecond, errors.New("boom"))
	m.OnBundleComplete(ctx, 5, 1, time.Millisecond, nil)
	m.OnCacheHit(ctx, "layout")
	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "artifact", 512)
	m.OnRequest(ctx, "POST", "/v1/layout")
	m.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.curves))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageErrors.WithLabelValues("layout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheEvents.WithLabelValues("layout", "hit")))
	assert.Equal(t, 512.0, testutil.ToFloat64(m.cacheBytes.WithLabelValues("artifact")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))

	expected := `
# HELP hierbundle_http_requests_total HTTP requests by route and status code.
# TYPE hierbundle_http_requests_total counter
hierbundle_http_requests_total{code="200",method="POST",route="/v1/layout"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "hierbundle_http_requests_total"))
}

func TestInstall(t *testing.T) {
	defer observability.Reset()

	m := New(prometheus.NewRegistry())
	m.Install()

	assert.Same(t, m, observability.Pipeline())
	assert.Same(t, m, observability.Cache())
	assert.Same(t, m, observability.HTTP())
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
