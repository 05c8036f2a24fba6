package middleware

import (
	"time"

	"github.com/erp/catalog-console/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type pageMetrics struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
}

// PageMetrics counts console requests and records their latency on meter
func PageMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	requests, err := telemetry.NewCounter(meter, "catalog.console.requests", "Console page requests", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter, "catalog.console.request.duration", "Console page latency", "s", telemetry.HTTPDurationBuckets...)
	if err != nil {
		return nil, err
	}
	m := &pageMetrics{requests: requests, duration: duration}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		}
		m.duration.RecordDuration(c.Request.Context(), time.Since(start), attrs...)
		m.requests.Inc(c.Request.Context(), append(attrs, attribute.String("http.status_group", StatusGroup(c.Writer.Status())))...)
	}, nil
}

// StatusGroup buckets a status code by class (2xx, 3xx, 4xx, 5xx)
func StatusGroup(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "other"
	}
}
