package metrics_test

import (
	"testing"

	"github.com/Gunvolt24/courtdesk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister_IsIdempotent(t *testing.T) {
	// Должно выполняться без паники даже при повторном вызове.
	metrics.MustRegister()
	metrics.MustRegister()
}

func TestCacheOps_CountersByLabel(t *testing.T) {
	metrics.MustRegister()

	hitBefore := testutil.ToFloat64(metrics.CacheOps.WithLabelValues("metrics-test", "hit"))
	missBefore := testutil.ToFloat64(metrics.CacheOps.WithLabelValues("metrics-test", "miss"))

	metrics.CacheOps.WithLabelValues("metrics-test", "hit").Inc()
	metrics.CacheOps.WithLabelValues("metrics-test", "hit").Inc()

	if got := testutil.ToFloat64(metrics.CacheOps.WithLabelValues("metrics-test", "hit")); got != hitBefore+2 {
		t.Fatalf("CacheOps(hit): got=%v want=%v", got, hitBefore+2)
	}
	if got := testutil.ToFloat64(metrics.CacheOps.WithLabelValues("metrics-test", "miss")); got != missBefore {
		t.Fatalf("CacheOps(miss): got=%v want=%v", got, missBefore)
	}
}

func TestCacheSize_GaugeSet(t *testing.T) {
	metrics.MustRegister()

	g := metrics.CacheSize.WithLabelValues("metrics-test")
	cur := testutil.ToFloat64(g)

	g.Set(cur + 5)
	if got := testutil.ToFloat64(g); got != cur+5 {
		t.Fatalf("CacheSize after +5: got=%v want=%v", got, cur+5)
	}

	g.Set(cur) // вернуть как было
	if got := testutil.ToFloat64(g); got != cur {
		t.Fatalf("CacheSize restore: got=%v want=%v", got, cur)
	}
}

func TestAPIAndInvalidationCounters_Inc(t *testing.T) {
	metrics.MustRegister()

	apiBefore := testutil.ToFloat64(metrics.APIRequests.WithLabelValues("GET /user", "200"))
	invBefore := testutil.ToFloat64(metrics.InvalidationEvents.WithLabelValues("settings", "applied"))
	dedupBefore := testutil.ToFloat64(metrics.DedupRequests.WithLabelValues("shared"))

	metrics.APIRequests.WithLabelValues("GET /user", "200").Inc()
	metrics.InvalidationEvents.WithLabelValues("settings", "applied").Inc()
	metrics.DedupRequests.WithLabelValues("shared").Inc()

	if got := testutil.ToFloat64(metrics.APIRequests.WithLabelValues("GET /user", "200")); got != apiBefore+1 {
		t.Fatalf("APIRequests: got=%v want=%v", got, apiBefore+1)
	}
	if got := testutil.ToFloat64(metrics.InvalidationEvents.WithLabelValues("settings", "applied")); got != invBefore+1 {
		t.Fatalf("InvalidationEvents: got=%v want=%v", got, invBefore+1)
	}
	if got := testutil.ToFloat64(metrics.DedupRequests.WithLabelValues("shared")); got != dedupBefore+1 {
		t.Fatalf("DedupRequests: got=%v want=%v", got, dedupBefore+1)
	}
}
