package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Кэши и дедупликация запросов.
var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations",
		},
		[]string{"cache", "op"}, // hit|miss|expired|set|delete|clear
	)
	CacheSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Number of items currently in cache",
		},
		[]string{"cache"},
	)
	DedupRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_requests_total",
			Help: "Deduplicated calls by outcome",
		},
		[]string{"result"}, // leader|shared|timeout
	)
	DedupInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_inflight_keys",
			Help: "Keys with a deduplicated call in progress",
		},
	)
)

// Обращения к удалённому API бронирований.
var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Requests sent to the booking API",
		},
		[]string{"endpoint", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Latency of booking API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// События инвалидации из Kafka.
var (
	InvalidationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidation_events_total",
			Help: "Cache invalidation events by scope and result",
		},
		[]string{"scope", "result"}, // applied|invalid|failed
	)
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of Kafka messages applied successfully",
		},
		[]string{"topic", "scope"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of Kafka messages that failed processing",
		},
		[]string{"topic", "scope", "reason"}, // invalid|error
	)
	KafkaMessagesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_skipped_total",
			Help: "Events published by this agent and skipped on consume",
		},
		[]string{"topic", "scope"},
	)
	InvalidationLag = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invalidation_lag_seconds",
			Help:    "Time between publishing an invalidation event and applying it",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"scope"},
	)
	KafkaMessagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_published_total",
			Help: "Number of invalidation events published to Kafka",
		},
		[]string{"topic", "result"}, // ok|error
	)
)

var registerOnce sync.Once

// MustRegister — регистрирует коллекторы в default registry; повторный вызов ничего не делает.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CacheOps, CacheSize, DedupRequests, DedupInFlight,
			APIRequests, APIRequestDuration,
			InvalidationEvents, KafkaMessagesConsumed,
			KafkaMessagesProcessed, KafkaMessagesFailed, KafkaMessagesSkipped,
			KafkaMessagesPublished, InvalidationLag,
		)
	})
}
