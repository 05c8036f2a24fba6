package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the console's instruments
var (
	AttrOperation  = attribute.Key("catalog.operation")
	AttrHTTPMethod = attribute.Key("http.request.method")
	AttrHTTPStatus = attribute.Key("http.response.status_code")
	AttrErrorKind  = attribute.Key("error.kind")
	AttrEvent      = attribute.Key("session.event")
)

// ClientMetrics records backend calls and session transitions.
type ClientMetrics struct {
	requests      *Counter
	duration      *Histogram
	sessionEvents *Counter
}

// NewClientMetrics creates the console's instruments on meter
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	requests, err := NewCounter(meter, "catalog.client.requests", "Backend requests issued by the console", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "catalog.client.duration", "Backend request latency", "s", HTTPDurationBuckets...)
	if err != nil {
		return nil, err
	}
	events, err := NewCounter(meter, "catalog.session.events", "Session transitions", "{event}")
	if err != nil {
		return nil, err
	}
	return &ClientMetrics{requests: requests, duration: duration, sessionEvents: events}, nil
}

// RecordRequest records one backend call. status is 0 when no response arrived;
// kind is empty on success.
func (m *ClientMetrics) RecordRequest(ctx context.Context, op, method string, status int, kind string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrOperation.String(op),
		AttrHTTPMethod.String(method),
		AttrHTTPStatus.String(strconv.Itoa(status)),
	}
	if kind != "" {
		attrs = append(attrs, AttrErrorKind.String(kind))
	}
	m.requests.Inc(ctx, attrs...)
	m.duration.RecordDuration(ctx, d, attrs...)
}

// RecordSessionEvent counts a login, logout, restore or invalidation
func (m *ClientMetrics) RecordSessionEvent(ctx context.Context, event string) {
	if m == nil {
		return
	}
	m.sessionEvents.Inc(ctx, AttrEvent.String(event))
}
