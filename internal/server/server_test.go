package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hierbundle/pkg/cache"
	apperrors "github.com/matzehuels/hierbundle/pkg/errors"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/observability"
	"github.com/matzehuels/hierbundle/pkg/observability/prom"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

const flare = `[
	{"name": "a.x", "imports": ["b.y", "b.z"]},
	{"name": "a.w", "imports": ["a.x"]},
	{"name": "b.y", "imports": []},
	{"name": "b.z", "imports": ["a.w"]}
]`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
	ts := httptest.NewServer(New(runner, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/layout", map[string]any{
		"document": json.RawMessage(flare),
		"options":  map[string]any{"tension": 0.5},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))

	var l graph.Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, graph.VizTypeBundle, l.VizType)
	assert.Equal(t, 0.5, l.Tension)
	assert.Len(t, l.Curves, 4)
	assert.Empty(t, l.Failures)
}

func TestLayoutIDsAreUnique(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"document": json.RawMessage(flare)}

	var ids []string
	for range 2 {
		resp := post(t, ts.URL+"/v1/layout", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var l graph.Layout
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
		ids = append(ids, l.ID)
	}
	assert.NotEqual(t, ids[0], ids[1])
}

func TestLayoutYAMLDocument(t *testing.T) {
	ts := newTestServer(t)

	doc := "delimiter: /\nnodes:\n  - name: a/x\n    imports: [b/y]\n  - name: b/y\n"
	resp := post(t, ts.URL+"/v1/layout", map[string]any{
		"document": doc,
		"options":  map[string]any{"format": "yaml"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var l graph.Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Equal(t, "/", l.Delimiter)
	assert.Len(t, l.Curves, 1)
}

func TestServerDefaults(t *testing.T) {
	ts := newTestServer(t, WithDefaults(pipeline.Options{Tension: pipeline.Float(0.2)}))

	resp := post(t, ts.URL+"/v1/layout", map[string]any{"document": json.RawMessage(flare)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var l graph.Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Equal(t, 0.2, l.Tension)
}

func TestLayoutErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   apperrors.Code
	}{
		{
			name:   "malformed body",
			body:   "{",
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidInput,
		},
		{
			name:   "missing document",
			body:   map[string]any{"options": map[string]any{}},
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidInput,
		},
		{
			name: "invalid tension",
			body: map[string]any{
				"document": json.RawMessage(flare),
				"options":  map[string]any{"tension": 1.5},
			},
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidTension,
		},
		{
			name: "duplicate leaf",
			body: map[string]any{
				"document": json.RawMessage(`[{"name": "a.x"}, {"name": "a.x"}]`),
			},
			status: http.StatusUnprocessableEntity,
			code:   apperrors.ErrCodeDuplicateLeaf,
		},
		{
			name: "unknown leaf in strict mode",
			body: map[string]any{
				"document": json.RawMessage(`[{"name": "a.x", "imports": ["c.w"]}, {"name": "b.y"}]`),
			},
			status: http.StatusUnprocessableEntity,
			code:   apperrors.ErrCodeUnknownLeaf,
		},
		{
			name: "yaml sent inline",
			body: map[string]any{
				"document": json.RawMessage(flare),
				"options":  map[string]any{"format": "yaml"},
			},
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidInput,
		},
		{
			name: "undecodable document",
			body: map[string]any{
				"document": "nodes: [",
				"options":  map[string]any{"format": "yaml"},
			},
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/layout", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Code)
		})
	}
}

func TestLayoutLenientReportsFailures(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/layout", map[string]any{
		"document": json.RawMessage(`[{"name": "a.x", "imports": ["c.w", "b.y"]}, {"name": "b.y"}]`),
		"options":  map[string]any{"lenient": true},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var l graph.Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Len(t, l.Curves, 1)
	require.Len(t, l.Failures, 1)
	assert.Equal(t, "c.w", l.Failures[0].Target)
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/render?format=svg", map[string]any{"document": json.RawMessage(flare)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<svg")
}

func TestRenderDefaultsToSVG(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/render", map[string]any{"document": json.RawMessage(flare)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
}

func TestRenderJSON(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/render?format=json", map[string]any{"document": json.RawMessage(flare)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var l graph.Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Len(t, l.Curves, 4)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/render?format=gif", map[string]any{"document": json.RawMessage(flare)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.ErrCodeInvalidFormat, decodeError(t, resp).Code)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v2/nothing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.ErrCodeNotFound, decodeError(t, resp).Code)
}

func TestMaxBodySize(t *testing.T) {
	ts := newTestServer(t, WithMaxBodySize(16))

	resp := post(t, ts.URL+"/v1/layout", map[string]any{"document": json.RawMessage(flare)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp).Message, "exceeds 16 bytes")
}

func TestMetrics(t *testing.T) {
	t.Cleanup(observability.Reset)
	reg := prometheus.NewRegistry()
	prom.New(reg).Install()

	ts := newTestServer(t, WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	resp := post(t, ts.URL+"/v1/layout", map[string]any{"document": json.RawMessage(flare)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `hierbundle_http_requests_total{code="200",method="POST",route="/v1/layout"} 1`)
	assert.Contains(t, text, "hierbundle_curves_total 4")
}

func TestMetricsNotMountedByDefault(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(pipeline.NewRunner(nil, nil, nil)).Serve(ctx, ln)
	}()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestMatchRouteOutsideRouter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/healthz", strings.NewReader(""))
	assert.Equal(t, unmatchedRoute, matchRoute(r))
}
