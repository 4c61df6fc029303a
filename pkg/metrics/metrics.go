// Package metrics provides Prometheus metrics for ADT traffic and error
// event publishing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Goden-Gun/adt-lib/pkg/adt"
	"github.com/Goden-Gun/adt-lib/pkg/connection"
)

const namespace = "adt"

// KindMalformed labels server errors whose body could not be classified.
const KindMalformed = "MalformedErrorDocument"

// Collector records connection and Kafka publish metrics. It satisfies
// connection.Observer and kafka.PublishObserver.
type Collector struct {
	gatherer prometheus.Gatherer

	// RequestsTotal counts ADT requests by method and status code; code is
	// "error" when no response was received.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration tracks ADT round trip latency.
	RequestDuration *prometheus.HistogramVec
	// ServerErrors counts classified server errors by kind.
	ServerErrors *prometheus.CounterVec
	// KafkaPublish counts published error events by topic and result.
	KafkaPublish *prometheus.CounterVec
}

// NewCollector registers the adt metrics on reg. A nil reg uses a fresh
// registry, which Handler then serves.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Collector{
		gatherer: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total ADT requests",
			},
			[]string{"method", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "ADT request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ServerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "server_errors_total",
				Help:      "Total ADT server errors by exception kind",
			},
			[]string{"kind"},
		),
		KafkaPublish: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kafka_publish_total",
				Help:      "Total error events published to Kafka",
			},
			[]string{"topic", "result"}, // result: success/error
		),
	}
}

// ObserveRequest implements connection.Observer.
func (c *Collector) ObserveRequest(_ context.Context, info connection.RequestInfo) {
	code := "error"
	if info.StatusCode > 0 {
		code = strconv.Itoa(info.StatusCode)
	}
	c.RequestsTotal.WithLabelValues(info.Method, code).Inc()
	c.RequestDuration.WithLabelValues(info.Method).Observe(info.Duration.Seconds())

	if d, ok := adt.DescriptorOf(info.Err); ok {
		c.ServerErrors.WithLabelValues(d.Kind).Inc()
	} else if errors.Is(info.Err, adt.ErrMalformedErrorDocument) {
		c.ServerErrors.WithLabelValues(KindMalformed).Inc()
	}
}

// ObservePublish implements kafka.PublishObserver.
func (c *Collector) ObservePublish(topic string, _ time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.KafkaPublish.WithLabelValues(topic, result).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
