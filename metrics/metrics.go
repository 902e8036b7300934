package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueryTotal counts executed queries by classified type and outcome
	// ("ok" or "error").
	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgwire_query_total",
			Help: "Total number of queries executed",
		},
		[]string{"query_type", "outcome"},
	)

	// QueryLatency tracks query round-trip latency by classified type.
	QueryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pgwire_query_latency_seconds",
			Help:    "Query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type"},
	)

	// RowsReturned tracks the number of rows decoded per query, by type.
	RowsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pgwire_rows_returned",
			Help:    "Number of rows returned per query",
			Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000},
		},
		[]string{"query_type"},
	)

	// NotificationsDelivered counts NOTIFY deliveries observed by
	// WaitForNotify, by channel name.
	NotificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgwire_notifications_delivered_total",
			Help: "Total notifications delivered via WaitForNotify",
		},
		[]string{"channel"},
	)

	// ConnectionsOpened counts successful Connect calls.
	ConnectionsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pgwire_connections_opened_total",
			Help: "Total connections successfully established",
		},
	)

	// ConnectionErrors counts failed Connect attempts, by failure stage.
	ConnectionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgwire_connection_errors_total",
			Help: "Total connection attempts that failed",
		},
		[]string{"stage"},
	)

	// BytesRead counts bytes read off the wire across all connections.
	BytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pgwire_bytes_read_total",
			Help: "Total bytes read from backend connections",
		},
	)

	// BytesWritten counts bytes written to the wire across all connections.
	BytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pgwire_bytes_written_total",
			Help: "Total bytes written to backend connections",
		},
	)

	once sync.Once
)

// Init registers all metrics with the default Prometheus registry. Safe to
// call more than once; registration only happens on the first call.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(QueryTotal)
		prometheus.MustRegister(QueryLatency)
		prometheus.MustRegister(RowsReturned)
		prometheus.MustRegister(NotificationsDelivered)
		prometheus.MustRegister(ConnectionsOpened)
		prometheus.MustRegister(ConnectionErrors)
		prometheus.MustRegister(BytesRead)
		prometheus.MustRegister(BytesWritten)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
