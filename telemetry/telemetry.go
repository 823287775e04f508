package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/logger"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// RequestIDHeader is echoed back on every wrapped response.
const RequestIDHeader = "X-Request-ID"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitehooks_http_requests_total",
			Help: "Total number of HTTP requests received.",
		},
		[]string{"handler", "method", "code"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitehooks_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)

	FeedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitehooks_feed_requests_total",
			Help: "Feed requests by outcome.",
		},
		[]string{"outcome"},
	)
	FeedItems = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitehooks_feed_items_served_total",
		Help: "Posts returned across all feed responses.",
	})
	LeadsAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitehooks_leads_appended_total",
		Help: "Lead rows appended to the spreadsheet.",
	})
	EmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitehooks_emails_sent_total",
		Help: "Resources emails sent.",
	})
	IntakeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitehooks_intake_failures_total",
			Help: "Failed intake submissions by failure kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		FeedRequests,
		FeedItems,
		LeadsAppended,
		EmailsSent,
		IntakeFailures,
	)
}

// Init sets up the tracer provider based on config and returns its shutdown
// func. Supported exporters: "stdout", "otlp". An empty exporter leaves the
// global no-op provider in place.
func Init(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if cfg == nil || cfg.Tracing.Exporter == "" {
		return noop, nil
	}
	serviceName := "sitehooks"
	if cfg.Tracing.ServiceName != "" {
		serviceName = cfg.Tracing.ServiceName
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("tracing resource: %w", err)
	}

	var exp sdktrace.SpanExporter
	switch strings.ToLower(cfg.Tracing.Exporter) {
	case "stdout":
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		var opts []otlptracehttp.Option
		if cfg.Tracing.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Tracing.Endpoint))
		}
		exp, err = otlptracehttp.New(ctx, opts...)
	default:
		return noop, fmt.Errorf("unsupported tracing exporter: %s", cfg.Tracing.Exporter)
	}
	if err != nil {
		return noop, fmt.Errorf("tracing exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	logger.Debug("tracing enabled with %s exporter", cfg.Tracing.Exporter)
	return tp.Shutdown, nil
}

// WrapHandler applies request ids, otelhttp tracing and Prometheus metrics.
func WrapHandler(name string, next http.Handler) http.Handler {
	h := otelhttp.NewHandler(next, name)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)
		r = r.WithContext(logger.WithRequestID(r.Context(), reqID))

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rw, r)
		dur := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(name, r.Method, fmt.Sprintf("%d", rw.status)).Inc()
		httpRequestDuration.WithLabelValues(name, r.Method).Observe(dur)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// MetricsHandler returns the Prometheus metrics endpoint handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
