package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "myobclient_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myobclient_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "status"})

	myobRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myobclient_myob_requests_total",
		Help: "Requests sent to the MYOB API by method and response status.",
	}, []string{"method", "status"})

	myobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "myobclient_myob_request_duration_seconds",
		Help:    "Duration of MYOB API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	salesOrders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myobclient_sales_orders_total",
		Help: "Sales orders processed by result.",
	}, []string{"result"})

	skuResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myobclient_sku_resolutions_total",
		Help: "SKU resolutions by the source that answered.",
	}, []string{"source"})
)

// Middleware records RED metrics for the API server.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		routeCtx := chi.RouteContext(r.Context())
		path := r.URL.Path
		if routeCtx != nil && routeCtx.RoutePattern() != "" {
			path = routeCtx.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(path, r.Method, status).Inc()
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveMyob records one MYOB round trip; status 0 means a transport error.
func ObserveMyob(method string, status int, d time.Duration) {
	myobRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	myobDuration.WithLabelValues(method).Observe(d.Seconds())
}

func SalesOrder(result string) {
	salesOrders.WithLabelValues(result).Inc()
}

func SkuResolved(source string) {
	skuResolutions.WithLabelValues(source).Inc()
}
