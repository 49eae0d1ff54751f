package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialexplore_api_requests_total",
			Help: "Total number of REST requests issued to the backend.",
		},
		[]string{"method", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialexplore_api_request_duration_seconds",
			Help:    "Backend request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	pollTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialexplore_poll_ticks_total",
			Help: "Total number of polling iterations by loop and outcome.",
		},
		[]string{"loop", "outcome"},
	)
	routeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialexplore_route_requests_total",
			Help: "Total number of route requests by result (solved or straight_line).",
		},
		[]string{"result"},
	)
	bridgeDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialexplore_location_picker_deliveries_total",
			Help: "Total number of picked locations forwarded to a form.",
		},
		[]string{"outcome"},
	)
	pushEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "socialexplore_push_events_total",
			Help: "Total number of notification push events received.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		pollTicksTotal,
		routeRequestsTotal,
		bridgeDeliveriesTotal,
		pushEventsTotal,
	)
}

// ObserveAPIRequest records one backend request. status 0 means transport failure.
func ObserveAPIRequest(method string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(method, label).Inc()
	apiRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func IncPollTick(loop string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	pollTicksTotal.WithLabelValues(loop, outcome).Inc()
}

func IncRoute(result string) {
	routeRequestsTotal.WithLabelValues(result).Inc()
}

func IncBridgeDelivery(outcome string) {
	bridgeDeliveriesTotal.WithLabelValues(outcome).Inc()
}

func IncPushEvent() {
	pushEventsTotal.Inc()
}

// Handler exposes the registered collectors
func Handler() http.Handler {
	return promhttp.Handler()
}
