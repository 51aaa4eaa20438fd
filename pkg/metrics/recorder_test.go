package metrics_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	augment "github.com/goliatone/go-augment"
	"github.com/goliatone/go-augment/pkg/metrics"
)

func TestLayerLabel(t *testing.T) {
	cases := map[string]string{
		"":              "none",
		"data":          "data",
		"origin:parent": "origin",
		"computed":      "computed",
	}
	for in, want := range cases {
		if got := metrics.LayerLabel(in); got != want {
			t.Fatalf("LayerLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecorderCountsResolutions(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}

	recorder.LogResolution(augment.ResolutionLogEvent{Key: "title", Layer: "data", Found: true, Duration: time.Microsecond})
	recorder.LogResolution(augment.ResolutionLogEvent{Key: "summary", Layer: "origin:base", Found: true})
	recorder.LogResolution(augment.ResolutionLogEvent{Key: "summary", Layer: "origin:grandparent", Found: true})
	recorder.LogResolution(augment.ResolutionLogEvent{Key: "nope"})
	recorder.LogResolution(augment.ResolutionLogEvent{Key: "x", Err: errors.New("boom")})

	expected := `
# HELP augment_resolutions_total Key resolutions by winning layer and result.
# TYPE augment_resolutions_total counter
augment_resolutions_total{layer="data",result="hit"} 1
augment_resolutions_total{layer="none",result="error"} 1
augment_resolutions_total{layer="none",result="miss"} 1
augment_resolutions_total{layer="origin",result="hit"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "augment_resolutions_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
	if n := testutil.CollectAndCount(recorder, "augment_resolution_duration_seconds"); n != 3 {
		t.Fatalf("expected 3 duration series, got %d", n)
	}
}

func TestRecorderRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := metrics.NewRecorder(reg); err != nil {
		t.Fatalf("first recorder: %v", err)
	}
	if _, err := metrics.NewRecorder(reg); err == nil {
		t.Fatalf("expected registration conflict")
	}
	if _, err := metrics.NewRecorder(reg, metrics.WithNamespace("blog")); err != nil {
		t.Fatalf("namespaced recorder: %v", err)
	}
}

func TestRecorderWiredIntoResolver(t *testing.T) {
	recorder, err := metrics.NewRecorder(nil)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	registry, err := augment.NewMapRegistry(augment.MustBlueprint("invoice",
		augment.FieldDeclaration{Handle: "price", Type: augment.FieldTypeFloat},
		augment.FieldDeclaration{Handle: "total", Type: augment.FieldTypeFormula, Config: map[string]any{"expression": "price * 2"}},
	))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	resolver := augment.NewResolver(
		augment.WithSchemaRegistry(registry),
		augment.WithResolutionLogger(recorder),
		augment.WithEvaluatorLogger(recorder),
	)
	record := augment.NewRecord("inv-1", "")
	record.BlueprintID = "invoice"
	record.Set("price", 10.0)
	ctx := context.Background()

	value, err := resolver.Resolve(ctx, record, "total")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := value.Augment(ctx); err != nil {
		t.Fatalf("augment: %v", err)
	}
	if _, err := resolver.Resolve(ctx, record, "id"); err != nil {
		t.Fatalf("resolve id: %v", err)
	}

	if n := testutil.CollectAndCount(recorder, "augment_resolutions_total"); n != 2 {
		t.Fatalf("expected data and computed series, got %d", n)
	}
	if n := testutil.CollectAndCount(recorder, "augment_formula_evaluations_total"); n != 1 {
		t.Fatalf("expected one formula series, got %d", n)
	}
}
