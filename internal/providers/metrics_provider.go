package providers

import (
	"followtrack/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObserveStoreDuration(op string, duration time.Duration)
	IncRefreshTotal(outcome string)
	SetFollowersTotal(account string, count int)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	refreshTotal    *prometheus.CounterVec
	followersTotal  *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObserveStoreDuration(op string, duration time.Duration) {
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncRefreshTotal(outcome string) {
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) SetFollowersTotal(account string, count int) {
	m.followersTotal.WithLabelValues(account).Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "followtrack_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "followtrack_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "followtrack_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "followtrack_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		storeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "followtrack_store_duration_seconds",
			Help:    "Duration of history store operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		refreshTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "followtrack_refresh_total",
			Help: "Total number of follower refreshes by outcome",
		}, []string{"outcome"}),

		followersTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "followtrack_followers",
			Help: "Follower count seen on the last refresh per account",
		}, []string{"account"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObserveStoreDuration(_ string, _ time.Duration)   {}
func (n *noopMetrics) IncRefreshTotal(_ string)                         {}
func (n *noopMetrics) SetFollowersTotal(_ string, _ int)                {}
