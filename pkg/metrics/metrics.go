package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/whoknows/weather/internal/domain"
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of refresh hints fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of refresh hints processed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of refresh hints failed to process",
		},
		[]string{"topic"},
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Freshness cache operations",
		},
		[]string{"op"}, // hit|miss|put|evicted
	)
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Number of entries currently in the freshness cache",
		},
	)
)

var (
	// ProviderCallDuration — длительность одного обращения к провайдеру погоды.
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whoknows_weather_api_duration_seconds",
			Help:    "Duration of outbound weather provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // success|transport|non-success-status|parse-error
	)
	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_resolve_total",
			Help: "Resolve calls by endpoint and resulting status",
		},
		[]string{"endpoint", "status"},
	)
	ResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_resolve_duration_seconds",
			Help:    "Caller-observed Resolve latency",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 3, 5, 10},
		},
		[]string{"endpoint"},
	)
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weather_breaker_state",
			Help: "Provider circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)
)

var registerOnce sync.Once

// MustRegister — регистрирует все метрики в default registry. Повторные вызовы безопасны.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed,
			CacheOps, CacheSize,
			ProviderCallDuration, ResolveTotal, ResolveDuration, BreakerState,
		)
	})
}

// Recorder — реализация ports.WeatherMetrics поверх глобальных коллекторов.
type Recorder struct{}

func (Recorder) ObserveResolve(endpoint string, status domain.Status, elapsed time.Duration) {
	ResolveTotal.WithLabelValues(endpoint, string(status)).Inc()
	ResolveDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (Recorder) ObserveProviderCall(outcome string, elapsed time.Duration) {
	ProviderCallDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
