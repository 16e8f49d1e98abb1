package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "focusdash/api"
	observabilityEvent = "observability.event"
	metricsEventDomain = "focusdash"
)

// requestMetrics collects per-stage timings for a read path and emits them
// both as span attributes and as one structured observability.event log
// entry carrying the trace id.
type requestMetrics struct {
	logger    *log.Logger
	span      trace.Span
	route     string
	eventName string
	start     time.Time

	identityDuration time.Duration
	fetchDuration    time.Duration
	computeDuration  time.Duration
	encodeDuration   time.Duration
	itemsReturned    int
	errorStage       string
}

// newRequestMetrics starts a span for the request and returns the metrics
// collector together with the span-carrying context.
func newRequestMetrics(ctx context.Context, logger *log.Logger, route, eventName string) (*requestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, eventName)
	return &requestMetrics{
		logger:    logger,
		span:      span,
		route:     route,
		eventName: eventName,
		start:     time.Now(),
	}, spanCtx
}

func (m *requestMetrics) ObserveIdentity(d time.Duration) {
	if d > 0 {
		m.identityDuration = d
	}
}

func (m *requestMetrics) ObserveFetch(d time.Duration) {
	if d > 0 {
		m.fetchDuration = d
	}
}

func (m *requestMetrics) ObserveCompute(d time.Duration) {
	if d > 0 {
		m.computeDuration = d
	}
}

func (m *requestMetrics) ObserveEncode(d time.Duration) {
	if d > 0 {
		m.encodeDuration = d
	}
}

func (m *requestMetrics) SetItemsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.itemsReturned = count
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log finalizes the span and emits the structured log entry. It must run
// exactly once, after the response status is known.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil || m.span == nil {
		return
	}

	attrs := map[string]any{
		"http.route":      m.route,
		"http.status_code": status,
	}
	spanAttrs := []attribute.KeyValue{
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
	}

	addFloat := func(key string, v float64) {
		attrs[key] = v
		spanAttrs = append(spanAttrs, attribute.Float64(key, v))
	}
	addFloat(metricsEventDomain+".total_ms", durationToMillis(time.Since(m.start)))
	if m.identityDuration > 0 {
		addFloat(metricsEventDomain+".identity_ms", durationToMillis(m.identityDuration))
	}
	if m.fetchDuration > 0 {
		addFloat(metricsEventDomain+".fetch_ms", durationToMillis(m.fetchDuration))
	}
	if m.computeDuration > 0 {
		addFloat(metricsEventDomain+".compute_ms", durationToMillis(m.computeDuration))
	}
	if m.encodeDuration > 0 {
		addFloat(metricsEventDomain+".encode_ms", durationToMillis(m.encodeDuration))
	}
	attrs[metricsEventDomain+".items_returned"] = m.itemsReturned
	spanAttrs = append(spanAttrs, attribute.Int(metricsEventDomain+".items_returned", m.itemsReturned))
	if m.errorStage != "" {
		attrs[metricsEventDomain+".error_stage"] = m.errorStage
		spanAttrs = append(spanAttrs, attribute.String(metricsEventDomain+".error_stage", m.errorStage))
	}

	m.span.SetAttributes(spanAttrs...)
	m.span.AddEvent(observabilityEvent)
	if err != nil {
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      m.eventName,
		"event.domain":    metricsEventDomain,
		"attributes":      attrs,
		"severity_text":   "INFO",
		"severity_number": 9,
	}
	if sc := m.span.SpanContext(); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info(observabilityEvent)
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
