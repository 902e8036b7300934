package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetrics_Init(t *testing.T) {
	// Init should not panic when called multiple times
	Init()
	Init()
}

func TestMetrics_Handler(t *testing.T) {
	Init()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()

	expectedMetrics := []string{
		"pgwire_query_total",
		"pgwire_query_latency_seconds",
		"pgwire_rows_returned",
		"pgwire_notifications_delivered_total",
		"pgwire_connections_opened_total",
		"pgwire_connection_errors_total",
		"pgwire_bytes_read_total",
		"pgwire_bytes_written_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric %q not found in response", metric)
		}
	}
}

func TestMetrics_Increment(t *testing.T) {
	Init()

	QueryTotal.WithLabelValues("select", "ok").Inc()
	QueryLatency.WithLabelValues("select").Observe(0.001)
	RowsReturned.WithLabelValues("select").Observe(1)
	NotificationsDelivered.WithLabelValues("myevents").Inc()
	ConnectionsOpened.Inc()
	ConnectionErrors.WithLabelValues("dial").Inc()
	BytesRead.Add(128)
	BytesWritten.Add(64)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `query_type="select"`) {
		t.Error("expected label query_type=select in output")
	}
	if !strings.Contains(body, `channel="myevents"`) {
		t.Error("expected label channel=myevents in output")
	}
}
