package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveScrapedMatch(t *testing.T) {
	Init()
	before := testutil.ToFloat64(scrapedMatchesCounter.WithLabelValues("ok"))
	ObserveScrapedMatch("ok")
	ObserveScrapedMatch("ok")
	after := testutil.ToFloat64(scrapedMatchesCounter.WithLabelValues("ok"))
	if after-before != 2 {
		t.Errorf("expected ok counter to grow by 2, grew by %v", after-before)
	}
}

func TestObserveHTTPRequest(t *testing.T) {
	ObserveHTTPRequest("/go", 200, 5*time.Millisecond)
	if got := testutil.ToFloat64(httpRequestsCounter.WithLabelValues("/go", "200")); got < 1 {
		t.Errorf("expected at least one /go 200 request, got %v", got)
	}
}

func TestInitIdempotent(t *testing.T) {
	// A second registration would panic on the default registry.
	Init()
	Init()
	SetModelLabels(36)
	if got := testutil.ToFloat64(trainedLabelsGauge); got != 36 {
		t.Errorf("labels gauge: want 36, got %v", got)
	}
}
