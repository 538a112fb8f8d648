// Package observability wires OpenTelemetry tracing and metrics, with
// optional console, OTLP and Prometheus exporters.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jobcopilot/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds the custom instruments of the service
type Metrics struct {
	// LLM calls
	LLMDuration   metric.Float64Histogram
	LLMRequests   metric.Int64Counter
	LLMErrors     metric.Int64Counter
	LLMTokenUsage metric.Int64Histogram

	// Business metrics
	FieldsAnswered metric.Int64Counter
	EventsRecorded metric.Int64Counter
	ProfileUpdates metric.Int64Counter
	ResumeUploads  metric.Int64Counter

	// Infrastructure
	RateLimitHits metric.Int64Counter
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
	metricsHandler http.Handler
}

// NewObservabilityManager creates a new observability manager. A disabled
// manager hands out no-op tracers and instruments.
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	om := &ObservabilityManager{
		config:     obsConfig,
		fullConfig: fullConfig,
	}
	if !obsConfig.Enabled {
		return om, om.initCustomMetrics(metricnoop.NewMeterProvider().Meter(obsConfig.ServiceName))
	}

	res, err := om.createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.initTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

// createResource describes this service instance
func (om *ObservabilityManager) createResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
}

// initTracing sets up OpenTelemetry tracing
func (om *ObservabilityManager) initTracing(res *resource.Resource) error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.otlpEnabled():
		exporter, err = om.createOTLPExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(om.config.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (om *ObservabilityManager) initMetrics(res *resource.Resource) error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	options := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		options = append(options, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(options...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics(mp.Meter(om.config.ServiceName))
}

// setupMetricReaders sets up all metric readers based on configuration
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(om.getMetricsCollectionInterval())))
	}

	if om.otlpEnabled() {
		reader, err := om.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if om.config.Prometheus.Enabled {
		reader, handler, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, err
		}
		readers = append(readers, reader)
		om.metricsHandler = handler
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

// initCustomMetrics creates the service instruments on meter
func (om *ObservabilityManager) initCustomMetrics(meter metric.Meter) error {
	m := &Metrics{}
	var err error

	if m.LLMDuration, err = meter.Float64Histogram("jobcopilot_llm_request_duration_seconds",
		metric.WithDescription("Time spent waiting for the LLM"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("failed to create LLM duration metric: %w", err)
	}
	if m.LLMRequests, err = meter.Int64Counter("jobcopilot_llm_requests_total",
		metric.WithDescription("Total number of LLM requests")); err != nil {
		return fmt.Errorf("failed to create LLM request count metric: %w", err)
	}
	if m.LLMErrors, err = meter.Int64Counter("jobcopilot_llm_errors_total",
		metric.WithDescription("Total number of failed LLM requests")); err != nil {
		return fmt.Errorf("failed to create LLM error count metric: %w", err)
	}
	if m.LLMTokenUsage, err = meter.Int64Histogram("jobcopilot_llm_token_usage",
		metric.WithDescription("Token usage for LLM requests (input, output, total)"),
		metric.WithUnit("{token}")); err != nil {
		return fmt.Errorf("failed to create LLM token usage metric: %w", err)
	}
	if m.FieldsAnswered, err = meter.Int64Counter("jobcopilot_fields_answered_total",
		metric.WithDescription("Form fields answered, by winning source")); err != nil {
		return fmt.Errorf("failed to create fields answered metric: %w", err)
	}
	if m.EventsRecorded, err = meter.Int64Counter("jobcopilot_events_recorded_total",
		metric.WithDescription("Audit and job events recorded")); err != nil {
		return fmt.Errorf("failed to create events recorded metric: %w", err)
	}
	if m.ProfileUpdates, err = meter.Int64Counter("jobcopilot_profile_updates_total",
		metric.WithDescription("Profile replacements and reloads")); err != nil {
		return fmt.Errorf("failed to create profile updates metric: %w", err)
	}
	if m.ResumeUploads, err = meter.Int64Counter("jobcopilot_resume_uploads_total",
		metric.WithDescription("Resume upload URLs issued")); err != nil {
		return fmt.Errorf("failed to create resume uploads metric: %w", err)
	}
	if m.RateLimitHits, err = meter.Int64Counter("jobcopilot_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter")); err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	om.metrics = m
	return nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	return om.metrics
}

// MetricsHandler serves the Prometheus endpoint, or nil when disabled
func (om *ObservabilityManager) MetricsHandler() http.Handler {
	return om.metricsHandler
}

// MetricsEndpoint is the path the Prometheus handler should be mounted on
func (om *ObservabilityManager) MetricsEndpoint() string {
	if om.config.Prometheus.Endpoint == "" {
		return "/metrics"
	}
	return om.config.Prometheus.Endpoint
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TokenUsage represents token usage reported by the LLM
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// LLMCall describes one completed LLM request
type LLMCall struct {
	Provider string
	Model    string
	Duration time.Duration
	Err      error
	Usage    *TokenUsage
}

// RecordLLMCall records duration, outcome and token usage of an LLM request
func (om *ObservabilityManager) RecordLLMCall(ctx context.Context, call LLMCall) {
	if !om.metricsEnabled() {
		return
	}
	m := om.metrics
	attrs := []attribute.KeyValue{
		attribute.String("provider", call.Provider),
		attribute.String("model", call.Model),
		attribute.Bool("success", call.Err == nil),
	}

	m.LLMDuration.Record(ctx, call.Duration.Seconds(), metric.WithAttributes(attrs...))
	m.LLMRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if call.Err != nil {
		m.LLMErrors.Add(ctx, 1, metric.WithAttributes(attrs[:2]...))
	}

	if call.Usage == nil || !om.trackTokenUsage() {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", call.Usage.InputTokens},
		{"output", call.Usage.OutputTokens},
		{"total", call.Usage.TotalTokens},
	} {
		m.LLMTokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("provider", call.Provider),
			attribute.String("model", call.Model),
			attribute.String("token_type", tt.tokenType)))
	}
}

// RecordFieldsAnswered counts answered fields per winning source
func (om *ObservabilityManager) RecordFieldsAnswered(ctx context.Context, bySource map[string]int) {
	if !om.metricsEnabled() {
		return
	}
	for source, count := range bySource {
		om.metrics.FieldsAnswered.Add(ctx, int64(count),
			metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordEvent counts a recorded audit or job event
func (om *ObservabilityManager) RecordEvent(ctx context.Context, kind string) {
	if !om.metricsEnabled() {
		return
	}
	om.metrics.EventsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordProfileUpdate counts a profile replacement ("api") or reload ("file")
func (om *ObservabilityManager) RecordProfileUpdate(ctx context.Context, origin string, success bool) {
	if !om.metricsEnabled() {
		return
	}
	om.metrics.ProfileUpdates.Add(ctx, 1, metric.WithAttributes(
		attribute.String("origin", origin),
		attribute.Bool("success", success)))
}

// RecordResumeUpload counts an issued upload URL
func (om *ObservabilityManager) RecordResumeUpload(ctx context.Context, signer string, success bool) {
	if !om.metricsEnabled() {
		return
	}
	om.metrics.ResumeUploads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("signer", signer),
		attribute.Bool("success", success)))
}

// RecordRateLimitHit counts a rejected request
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, endpoint, method string) {
	if !om.metricsEnabled() {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.Metrics.TrackRateLimits {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method)))
}

func (om *ObservabilityManager) metricsEnabled() bool {
	if om == nil || om.metrics == nil {
		return false
	}
	return om.fullConfig == nil || om.fullConfig.Observability.Metrics.Enabled
}

func (om *ObservabilityManager) trackTokenUsage() bool {
	return om.fullConfig == nil || om.fullConfig.Observability.Metrics.TrackTokenUsage
}

func (om *ObservabilityManager) otlpEnabled() bool {
	return om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled
}

// No-op exporter for when no trace exporter is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPExporter creates an OTLP HTTP trace exporter
func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.getMetricsCollectionInterval())), nil
}

// getServiceInstanceID returns the configured instance id
func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.config.ServiceInstance != "" {
		return om.config.ServiceInstance
	}
	return "jobcopilot-1"
}

// getMetricsCollectionInterval returns the configured metrics collection interval
func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
