package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordParse(t *testing.T) {
	r := NewRegistry()

	r.RecordParse("success", 5*time.Millisecond, 3, 12, 1)
	r.RecordParse("failure", time.Millisecond, 0, 0, 0)

	if got := testutil.ToFloat64(r.DocumentsParsedTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("parsed success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.DocumentsParsedTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("parsed failure = %v, want 1", got)
	}
	// Failures contribute no warnings.
	if got := testutil.ToFloat64(r.ParseWarningsTotal); got != 1 {
		t.Errorf("warnings = %v, want 1", got)
	}
}

func TestRecordWrite(t *testing.T) {
	r := NewRegistry()
	r.RecordWrite("success")
	r.RecordWrite("success")

	if got := testutil.ToFloat64(r.DocumentsWrittenTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("written = %v, want 2", got)
	}
}

func TestRecordValidation(t *testing.T) {
	r := NewRegistry()
	r.RecordValidation("failure", time.Millisecond)

	if got := testutil.ToFloat64(r.ValidationsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("validations = %v, want 1", got)
	}
}

func TestRecordConversion(t *testing.T) {
	r := NewRegistry()
	r.RecordConversion("to_native", "success", 2*time.Millisecond, 7)
	r.RecordConversion("from_native", "failure", time.Millisecond, 0)

	if got := testutil.ToFloat64(r.ConversionsTotal.WithLabelValues("to_native", "success")); got != 1 {
		t.Errorf("to_native success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ConversionsTotal.WithLabelValues("from_native", "failure")); got != 1 {
		t.Errorf("from_native failure = %v, want 1", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	a := DefaultRegistry()
	b := DefaultRegistry()
	if a != b {
		t.Error("DefaultRegistry is not a singleton")
	}
}
