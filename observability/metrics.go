package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	handlerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mofit",
		Subsystem: "handler",
		Name:      "requests_total",
		Help:      "Handler invocations by handler name and response status code.",
	}, []string{"handler", "status"})
	handlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mofit",
		Subsystem: "handler",
		Name:      "duration_seconds",
		Help:      "Handler latency including the store call.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler"})
)

func init() {
	prometheus.MustRegister(handlerRequests, handlerDuration)
}

// RecordRequest counts one finished invocation of handler.
func RecordRequest(handler string, status int, elapsed time.Duration) {
	handlerRequests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	handlerDuration.WithLabelValues(handler).Observe(elapsed.Seconds())
}
