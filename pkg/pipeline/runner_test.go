package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/hierbundle/pkg/cache"
	apperrors "github.com/matzehuels/hierbundle/pkg/errors"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/observability"
)

const flareDoc = `[
  {"name": "flare.analytics.cluster.AgglomerativeCluster", "imports": ["flare.animate.Transitioner", "flare.vis.data.DataList"]},
  {"name": "flare.analytics.cluster.CommunityStructure", "imports": ["flare.analytics.cluster.AgglomerativeCluster"]},
  {"name": "flare.animate.Transitioner", "imports": ["flare.vis.data.DataList"]},
  {"name": "flare.vis.data.DataList", "imports": []}
]`

const flareYAML = `
- name: flare.analytics.cluster.AgglomerativeCluster
  imports: [flare.animate.Transitioner, flare.vis.data.DataList]
- name: flare.analytics.cluster.CommunityStructure
  imports: [flare.analytics.cluster.AgglomerativeCluster]
- name: flare.animate.Transitioner
  imports: [flare.vis.data.DataList]
- name: flare.vis.data.DataList
  imports: []
`

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestExecuteBundle(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	defer r.Close()

	res, err := r.Execute(ctx, []byte(flareDoc), Options{Formats: []string{"svg", "json", "dot"}, Labels: true})
	if err != nil {
		t.Fatal(err)
	}

	if res.Stats.LeafCount != 4 || res.Stats.EdgeCount != 4 || res.Stats.CurveCount != 4 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Tree.MustNode(res.Tree.Root()).ID != "flare" {
		t.Errorf("root = %q, want flare", res.Tree.MustNode(res.Tree.Root()).ID)
	}
	if res.DocumentHash == "" {
		t.Error("document hash should be set")
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}

	svg := string(res.Artifacts["svg"])
	if !strings.HasPrefix(svg, "<svg") || strings.Count(svg, `class="curve"`) != 4 {
		t.Errorf("unexpected svg:\n%s", svg)
	}
	if !strings.Contains(svg, ">AgglomerativeCluster</text>") {
		t.Error("svg should carry leaf labels")
	}
	if !strings.Contains(string(res.Artifacts["dot"]), "digraph") {
		t.Errorf("unexpected dot:\n%s", res.Artifacts["dot"])
	}

	l, err := graph.UnmarshalLayout(res.Artifacts["json"])
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Curves) != 4 || l.Center == nil {
		t.Errorf("json layout: %d curves, center %v", len(l.Curves), l.Center)
	}
	if got := l.Curves[0].Route; got[0] != "flare.analytics.cluster.AgglomerativeCluster" || got[len(got)-1] != "flare.animate.Transitioner" {
		t.Errorf("route = %v", got)
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	opts := Options{Formats: []string{"svg"}}

	first, err := r.Execute(ctx, []byte(flareDoc), opts)
	if err != nil {
		t.Fatal(err)
	}

	second, err := r.Execute(ctx, []byte(flareYAML), Options{Format: "yaml", Formats: []string{"svg"}})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("same document in another format should hit: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs")
	}

	third, err := r.Execute(ctx, []byte(flareDoc), Options{Formats: []string{"svg"}, Tension: Float(0.2)})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("different tension should miss the layout cache")
	}

	refreshed, err := r.Execute(ctx, []byte(flareDoc), Options{Formats: []string{"svg"}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.LayoutHit || refreshed.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteStrictUnknownLeaf(t *testing.T) {
	doc := `[{"name": "a/x", "imports": ["a/y", "c/w"]}, {"name": "a/y"}, {"name": "b/z"}]`
	r := NewRunner(nil, nil, nil)

	_, err := r.Execute(context.Background(), []byte(doc), Options{Delimiter: "/"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := apperrors.FromDomain(err).Code; code != apperrors.ErrCodeUnknownLeaf {
		t.Errorf("code = %s, want UNKNOWN_LEAF", code)
	}
	if !strings.Contains(err.Error(), `"c/w"`) {
		t.Errorf("error should name the identifier: %v", err)
	}

	res, err := r.Execute(context.Background(), []byte(doc), Options{Delimiter: "/", Lenient: true, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.CurveCount != 1 || res.Stats.FailureCount != 1 {
		t.Errorf("lenient stats = %+v", res.Stats)
	}
	if res.Layout.Failures[0].Index != 1 {
		t.Errorf("failure index = %d, want 1", res.Layout.Failures[0].Index)
	}
}

func TestExecuteDuplicateLeaf(t *testing.T) {
	doc := `[{"name": "a.x"}, {"name": "a.x"}]`
	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), []byte(doc), Options{})
	if code := apperrors.FromDomain(err).Code; code != apperrors.ErrCodeDuplicateLeaf {
		t.Errorf("code = %s, want DUPLICATE_LEAF (err %v)", code, err)
	}
}

func TestExecuteVizTypes(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	tests := []struct {
		vizType string
		formats []string
		check   func(t *testing.T, res *Result)
	}{
		{"tree", []string{"svg"}, func(t *testing.T, res *Result) {
			if !strings.Contains(string(res.Artifacts["svg"]), "<line") {
				t.Error("tree svg should draw parent links")
			}
			if len(res.Layout.Curves) != 0 {
				t.Error("tree layout should have no curves")
			}
		}},
		{"project", []string{"svg"}, func(t *testing.T, res *Result) {
			svg := string(res.Artifacts["svg"])
			if !strings.Contains(svg, "V") || !strings.Contains(svg, "<text") {
				t.Error("project svg should draw labelled elbow links")
			}
		}},
		{"nodelink", []string{"dot", "json"}, func(t *testing.T, res *Result) {
			if !strings.Contains(string(res.Artifacts["dot"]), "cluster_") {
				t.Errorf("nodelink dot should nest groups:\n%s", res.Artifacts["dot"])
			}
			if len(res.Layout.Edges) != 4 {
				t.Errorf("nodelink layout has %d edges, want 4", len(res.Layout.Edges))
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.vizType, func(t *testing.T) {
			res, err := r.Execute(ctx, []byte(flareDoc), Options{VizType: tt.vizType, Formats: tt.formats})
			if err != nil {
				t.Fatal(err)
			}
			if res.Layout.VizType != tt.vizType {
				t.Errorf("VizType = %q", res.Layout.VizType)
			}
			tt.check(t, res)
		})
	}
}

func TestRenderSavedLayout(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	opts := Options{Formats: []string{"svg", "json"}, Theme: ThemeDark}

	res, err := r.Execute(ctx, []byte(flareDoc), opts)
	if err != nil {
		t.Fatal(err)
	}
	saved, err := graph.UnmarshalLayout(res.Artifacts["json"])
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := r.Render(ctx, saved, Options{Formats: []string{"svg"}, Theme: ThemeDark})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(artifacts["svg"], res.Artifacts["svg"]) {
		t.Error("re-rendered layout differs from the original rendering")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnParseComplete(_ context.Context, _ string, leaves int, _ time.Duration, _ error) {
	h.add("parse")
}
func (h *recordingHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {
	h.add("layout")
}
func (h *recordingHooks) OnBundleComplete(context.Context, int, int, time.Duration, error) {
	h.add("bundle")
}
func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.add("render")
}
func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string)  { h.add("hit:" + keyType) }
func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) { h.add("miss:" + keyType) }

func TestHooks(t *testing.T) {
	defer observability.Reset()
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)

	r := newFileRunner(t)
	for range 2 {
		if _, err := r.Execute(context.Background(), []byte(flareDoc), Options{}); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{
		"parse", "miss:layout", "bundle", "layout", "miss:artifact", "render",
		"parse", "hit:layout", "layout", "hit:artifact", "render",
	}
	if strings.Join(h.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v\nwant     %v", h.events, want)
	}
}
