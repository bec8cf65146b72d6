package observability

import (
	"testing"
	"time"
)

func TestMetricsCountsPerPathMethodStatus(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/tickets", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 7*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 404, time.Millisecond)

	if got := m.RequestCount("/tickets", "GET", 200); got != 2 {
		t.Fatalf("count(200) = %d, want 2", got)
	}
	if got := m.RequestCount("/tickets", "GET", 404); got != 1 {
		t.Fatalf("count(404) = %d, want 1", got)
	}
	if got := m.RequestCount("/tickets", "POST", 200); got != 0 {
		t.Fatalf("count(POST) = %d, want 0", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, 0)
	m.RecordError("/x", "GET", "CONFLICT")
	if got := m.RequestCount("/x", "GET", 200); got != 0 {
		t.Fatalf("nil metrics count = %d, want 0", got)
	}
}
