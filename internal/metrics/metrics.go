package metrics

import (
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rentitout",
		Subsystem: "chat",
		Name:      "messages_sent_total",
		Help:      "Chat messages persisted.",
	})

	SendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rentitout",
		Subsystem: "chat",
		Name:      "send_failures_total",
		Help:      "Chat sends that failed at the store.",
	})

	FeedDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentitout",
		Subsystem: "chat",
		Name:      "feed_deliveries_total",
		Help:      "Change feed notifications by outcome (delivered, buffered, dropped, duplicate, stale).",
	}, []string{"outcome"})

	ActiveSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rentitout",
		Subsystem: "chat",
		Name:      "active_subscriptions",
		Help:      "Open live-update subscriptions.",
	})

	ThreadCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentitout",
		Subsystem: "chat",
		Name:      "thread_cache_total",
		Help:      "Thread cache lookups by result (hit, miss).",
	}, []string{"result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentitout",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status class.",
	}, []string{"method", "route", "status"})

	goroutines = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "rentitout",
		Name:      "goroutines",
		Help:      "Number of active goroutines.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })
)

func init() {
	prometheus.MustRegister(
		MessagesSent,
		SendFailures,
		FeedDeliveries,
		ActiveSubscriptions,
		ThreadCache,
		HTTPRequests,
		goroutines,
	)
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
