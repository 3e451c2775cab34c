package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	MessagesQueued      prometheus.Counter
	ParseFailures       prometheus.Counter
	MessagesStored      prometheus.Counter
	MessagesDropped     prometheus.Counter
	FeedsWritten        prometheus.Counter
	FeedFailures        prometheus.Counter
	QueueDepth          prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfeed_connections_accepted_total",
			Help: "Total number of accepted SMTP connections",
		}),
		MessagesQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfeed_messages_queued_total",
			Help: "Total number of parsed messages pushed onto the dispatch queue",
		}),
		ParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfeed_parse_failures_total",
			Help: "Total number of message payloads discarded as unparseable",
		}),
		MessagesStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfeed_messages_stored_total",
			Help: "Total number of messages handled successfully by the consumer",
		}),
		MessagesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfeed_messages_dropped_total",
			Help: "Total number of messages dropped after a handler failure",
		}),
		FeedsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfeed_feeds_written_total",
			Help: "Total number of feed documents written",
		}),
		FeedFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfeed_feed_failures_total",
			Help: "Total number of feed mappings that failed to generate",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mailfeed_queue_depth",
			Help: "Current number of messages waiting on the dispatch queue",
		}),
	}
}
