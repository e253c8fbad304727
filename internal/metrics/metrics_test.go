package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStoreOp(t *testing.T) {
	beforeOK := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("load", "ok"))
	beforeErr := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("load", "error"))

	ObserveStoreOp("load", time.Now(), nil)
	ObserveStoreOp("load", time.Now(), errors.New("boom"))
	ObserveStoreOp("load", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("load", "ok")) - beforeOK; got != 1 {
		t.Fatalf("ok count: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("load", "error")) - beforeErr; got != 2 {
		t.Fatalf("error count: got %v, want 2", got)
	}
}

func TestRecordOutcome(t *testing.T) {
	before := testutil.ToFloat64(OutcomesTotal.WithLabelValues("skip", "HAPPY"))
	RecordOutcome("skip", "HAPPY")
	if got := testutil.ToFloat64(OutcomesTotal.WithLabelValues("skip", "HAPPY")) - before; got != 1 {
		t.Fatalf("outcome count: got %v, want 1", got)
	}
}
