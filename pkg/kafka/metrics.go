package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var consumerLabels = []string{"topic", "consumer_group"}

func counter(name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
}

func histogram(name, help string, labels []string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: prometheus.DefBuckets,
	}, labels)
}

// Consumer metrics.
var (
	ConsumerMessagesReceived = counter("kafka_consumer_messages_received_total",
		"Kafka messages fetched from the broker", consumerLabels)
	ConsumerMessagesProcessed = counter("kafka_consumer_messages_processed_total",
		"Kafka messages handled successfully", consumerLabels)
	ConsumerMessagesFailed = counter("kafka_consumer_messages_failed_total",
		"Kafka messages that failed every attempt", consumerLabels)
	ConsumerMessagesDuplicate = counter("kafka_consumer_messages_duplicate_total",
		"Kafka messages skipped because their event id was already applied", consumerLabels)
	ConsumerDLQPublished = counter("kafka_consumer_dlq_published_total",
		"Kafka messages forwarded to a dead-letter topic", consumerLabels)
	ConsumerProcessingDuration = histogram("kafka_consumer_processing_duration_seconds",
		"Kafka message handling time in seconds", consumerLabels)
)

// Producer metrics.
var (
	ProducerMessagesPublished = counter("kafka_producer_messages_published_total",
		"Kafka messages published", []string{"topic"})
	ProducerPublishErrors = counter("kafka_producer_publish_errors_total",
		"Kafka publish failures", []string{"topic"})
	ProducerPublishDuration = histogram("kafka_producer_publish_duration_seconds",
		"Kafka publish latency in seconds", []string{"topic"})
)
