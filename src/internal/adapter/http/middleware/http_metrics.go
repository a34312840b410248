package middleware

import (
	"net/http"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/metrics"
	"github.com/gorilla/mux"
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// HTTPMetrics records one observation per request, labelled by route
// template rather than raw path.
func HTTPMetrics(collector metrics.Collector) func(http.Handler) http.Handler {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sw, r)

			collector.RecordHTTPRequest(r.Method, routeTemplate(r), sw.statusCode, time.Since(start))
		})
	}
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return template
}
