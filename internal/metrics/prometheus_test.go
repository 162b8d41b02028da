package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordConviction(true)
	r.RecordConviction(false)
	r.RecordConviction(false)
	r.RecordChallenge("ACCEPTED")
	r.RecordDomainError("not_found")
	r.RecordDomainError("")
	r.RecordSweep(0.25, 7)

	if got := testutil.ToFloat64(r.convictions.WithLabelValues("created")); got != 1 {
		t.Fatalf("expected 1 created conviction, got %v", got)
	}
	if got := testutil.ToFloat64(r.convictions.WithLabelValues("updated")); got != 2 {
		t.Fatalf("expected 2 updated convictions, got %v", got)
	}
	if got := testutil.ToFloat64(r.domainErrors.WithLabelValues("not_found")); got != 1 {
		t.Fatalf("expected 1 not_found error, got %v", got)
	}
	if got := testutil.ToFloat64(r.sweepSignals); got != 7 {
		t.Fatalf("expected sweep gauge 7, got %v", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.RecordConviction(true)
	r.RecordChallenge("RESOLVED")
	r.RecordDomainError("conflict")
	r.RecordSweep(1, 1)
}
