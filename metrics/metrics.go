// Package metrics bundles the Prometheus collectors a connection
// reports against, grounded on the per-subsystem Metrics structs found
// throughout the reference corpus's protocol adapters (nil-receiver
// methods so an unconfigured connection pays no branch at the call
// site).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles the four collectors the connection core reports
// against: pending-request depth, the highest sync tag issued so far,
// per-command request latency, and reader-task restarts.
type Collectors struct {
	PendingRequests prometheus.Gauge
	SyncHighWater   prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
	ReaderRestarts  prometheus.Counter
}

// New builds an unregistered Collectors. Call Register to attach it to
// a Prometheus registry.
func New() *Collectors {
	return &Collectors{
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tarantool_pending_requests",
			Help: "Number of requests dispatched but not yet completed.",
		}),
		SyncHighWater: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tarantool_sync_high_water",
			Help: "Highest sync tag allocated so far on this connection.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tarantool_request_duration_seconds",
			Help:    "Request round-trip latency by command.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		ReaderRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tarantool_reader_restarts_total",
			Help: "Number of times the background reader task has terminated.",
		}),
	}
}

// Register attaches every collector to reg. Panics on duplicate
// registration, matching the reference corpus's MustRegister-at-startup
// convention.
func (c *Collectors) Register(reg prometheus.Registerer) {
	if c == nil {
		return
	}
	reg.MustRegister(c.PendingRequests, c.SyncHighWater, c.RequestDuration, c.ReaderRestarts)
}

// Dispatched records that a request was just handed to the socket.
func (c *Collectors) Dispatched(sync uint64) {
	if c == nil {
		return
	}
	c.PendingRequests.Inc()
	c.SyncHighWater.Set(float64(sync))
}

// Completed records that a request finished, successfully or not.
func (c *Collectors) Completed(command string, d time.Duration) {
	if c == nil {
		return
	}
	c.PendingRequests.Dec()
	c.RequestDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ReaderRestarted records that the background reader task returned and
// is about to be torn down along with the connection.
func (c *Collectors) ReaderRestarted() {
	if c == nil {
		return
	}
	c.ReaderRestarts.Inc()
}
