// Package observability provides OpenTelemetry integration and structured
// logging for liveform packages.
//
// Features:
//   - Tracing of validation passes, field changes and submissions
//   - Counters and a duration histogram for validations and submissions
//   - Structured logging through zerolog
//   - No-op by default; nothing is exported until Init is called
//
// Example usage:
//
//	import "github.com/kdsmith18542/liveform/observability"
//
//	func main() {
//	    observability.Init(observability.Config{
//	        ServiceName:    "liveform",
//	        ServiceVersion: "1.0.0",
//	        Environment:    "production",
//	        EnableTracing:  true,
//	    })
//
//	    ctx, span := observability.StartSpan(context.Background(), "registration")
//	    defer span.End()
//
//	    observability.RecordMetric("form_validations", 1, map[string]string{
//	        "form_type": "registration",
//	    })
//	}
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "liveform"

// Config holds the configuration for observability initialization
type Config struct {
	// ServiceName is the name of the service for tracing and metrics
	ServiceName string `yaml:"service_name"`
	// ServiceVersion is the version of the service
	ServiceVersion string `yaml:"service_version"`
	// Environment is the deployment environment (dev, staging, prod)
	Environment string `yaml:"environment"`
	// EnableTracing enables distributed tracing
	EnableTracing bool `yaml:"enable_tracing"`
	// EnableMetrics enables metrics collection
	EnableMetrics bool `yaml:"enable_metrics"`
	// EnableLogging enables structured logging
	EnableLogging bool `yaml:"enable_logging"`
}

// Observer provides observability capabilities for liveform operations
type Observer interface {
	// Form validation observability
	OnFormValidationStart(ctx context.Context, formName string)
	OnFormValidationEnd(ctx context.Context, formName string, errorCount int, duration time.Duration)
	OnFormValidationError(ctx context.Context, formName string, field string, error string)
	OnFieldChanged(ctx context.Context, formName string, field string)

	// Submission observability
	OnSubmitStart(ctx context.Context, formName string)
	OnSubmitEnd(ctx context.Context, formName string, duration time.Duration, success bool)

	// i18n observability
	OnTranslationStart(ctx context.Context, locale string, key string)
	OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration)
	OnLocaleDetection(ctx context.Context, detectedLocale string, fallbackUsed bool)
}

// Global observer instance
var globalObserver Observer = &noopObserver{}

var (
	loggerMu sync.RWMutex
	logger   = newConsoleLogger(os.Stderr, zerolog.InfoLevel)
)

// Init initializes the observability system with the given configuration
func Init(config Config) error {
	if !config.EnableTracing && !config.EnableMetrics && !config.EnableLogging {
		// No observability enabled, use no-op observer
		return nil
	}

	// Initialize OpenTelemetry if tracing or metrics are enabled
	if config.EnableTracing || config.EnableMetrics {
		if err := initOpenTelemetry(config); err != nil {
			return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
	}

	observer, err := newOtelObserver(config, otel.Tracer(instrumentationName), otel.Meter(instrumentationName))
	if err != nil {
		return err
	}
	globalObserver = observer

	return nil
}

// SetObserver sets a custom observer for observability events
func SetObserver(observer Observer) {
	if observer == nil {
		observer = &noopObserver{}
	}
	globalObserver = observer
}

// GetObserver returns the current observer instance
func GetObserver() Observer {
	return globalObserver
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// ConfigureLogger installs a console logger writing to out at level, which
// is one of debug, info, warn or error. Unknown levels fall back to info.
func ConfigureLogger(out io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	SetLogger(newConsoleLogger(out, lvl))
}

// Logger returns the package logger.
func Logger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func newConsoleLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// StartSpan starts a new span for tracing
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// RecordMetric records a metric with the given name, value, and attributes
func RecordMetric(name string, value float64, attributes map[string]string) {
	if observer, ok := globalObserver.(*otelObserver); ok {
		observer.recordMetric(name, value, attributes)
	}
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
	}
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(toAttributes(attributes)...)
	}
}

// LogInfo logs an info-level message with structured data
func LogInfo(ctx context.Context, message string, attributes map[string]string) {
	l := Logger()
	event := l.Info()
	for k, v := range attributes {
		event = event.Str(k, v)
	}
	event.Msg(message)

	if observer, ok := globalObserver.(*otelObserver); ok {
		observer.spanLog(ctx, "log.info", message, nil, attributes)
	}
}

// LogError logs an error-level message with structured data
func LogError(ctx context.Context, message string, err error, attributes map[string]string) {
	l := Logger()
	event := l.Error().Err(err)
	for k, v := range attributes {
		event = event.Str(k, v)
	}
	event.Msg(message)

	if observer, ok := globalObserver.(*otelObserver); ok {
		observer.spanLog(ctx, "log.error", message, err, attributes)
	}
}

func toAttributes(attributes map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// noopObserver is a no-operation observer that does nothing
type noopObserver struct{}

func (n *noopObserver) OnFormValidationStart(ctx context.Context, formName string) {}
func (n *noopObserver) OnFormValidationEnd(ctx context.Context, formName string, errorCount int, duration time.Duration) {
}
func (n *noopObserver) OnFormValidationError(ctx context.Context, formName string, field string, error string) {
}
func (n *noopObserver) OnFieldChanged(ctx context.Context, formName string, field string) {}
func (n *noopObserver) OnSubmitStart(ctx context.Context, formName string)                {}
func (n *noopObserver) OnSubmitEnd(ctx context.Context, formName string, duration time.Duration, success bool) {
}
func (n *noopObserver) OnTranslationStart(ctx context.Context, locale string, key string) {}
func (n *noopObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
}
func (n *noopObserver) OnLocaleDetection(ctx context.Context, detectedLocale string, fallbackUsed bool) {
}

// otelObserver implements Observer using OpenTelemetry
type otelObserver struct {
	config Config
	tracer trace.Tracer
	meter  metric.Meter

	validations      metric.Int64Counter
	validationErrors metric.Int64Counter
	submissions      metric.Int64Counter
	duration         metric.Float64Histogram
}

func newOtelObserver(config Config, tracer trace.Tracer, meter metric.Meter) (*otelObserver, error) {
	o := &otelObserver{
		config: config,
		tracer: tracer,
		meter:  meter,
	}

	var err error
	if o.validations, err = o.meter.Int64Counter("liveform.validations",
		metric.WithDescription("Full validation passes")); err != nil {
		return nil, fmt.Errorf("create validations counter: %w", err)
	}
	if o.validationErrors, err = o.meter.Int64Counter("liveform.validation_errors",
		metric.WithDescription("Field errors produced by validation passes")); err != nil {
		return nil, fmt.Errorf("create validation errors counter: %w", err)
	}
	if o.submissions, err = o.meter.Int64Counter("liveform.submissions",
		metric.WithDescription("Submit actions by outcome")); err != nil {
		return nil, fmt.Errorf("create submissions counter: %w", err)
	}
	if o.duration, err = o.meter.Float64Histogram("liveform.operation.duration",
		metric.WithDescription("Duration of validation passes and submissions"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return o, nil
}

func (o *otelObserver) OnFormValidationStart(ctx context.Context, formName string) {
	_, span := o.tracer.Start(ctx, "form.validation", trace.WithAttributes(
		attribute.String("form.name", formName),
	))
	span.End()
}

func (o *otelObserver) OnFormValidationEnd(ctx context.Context, formName string, errorCount int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("form.name", formName))
	o.validations.Add(ctx, 1, attrs)
	o.validationErrors.Add(ctx, int64(errorCount), attrs)
	o.duration.Record(ctx, milliseconds(duration), metric.WithAttributes(
		attribute.String("form.name", formName),
		attribute.String("operation", "validate"),
	))

	AddSpanEvent(ctx, "form.validation.completed", map[string]string{
		"form.name":   formName,
		"error.count": fmt.Sprintf("%d", errorCount),
		"duration.ms": fmt.Sprintf("%.2f", milliseconds(duration)),
	})
}

func (o *otelObserver) OnFormValidationError(ctx context.Context, formName string, field string, error string) {
	AddSpanEvent(ctx, "form.validation.error", map[string]string{
		"form.name": formName,
		"field":     field,
		"error":     error,
	})
}

func (o *otelObserver) OnFieldChanged(ctx context.Context, formName string, field string) {
	_, span := o.tracer.Start(ctx, "form.field_changed", trace.WithAttributes(
		attribute.String("form.name", formName),
		attribute.String("field", field),
	))
	span.End()
}

func (o *otelObserver) OnSubmitStart(ctx context.Context, formName string) {
	_, span := o.tracer.Start(ctx, "form.submit", trace.WithAttributes(
		attribute.String("form.name", formName),
	))
	span.End()
}

func (o *otelObserver) OnSubmitEnd(ctx context.Context, formName string, duration time.Duration, success bool) {
	o.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("form.name", formName),
		attribute.Bool("success", success),
	))
	o.duration.Record(ctx, milliseconds(duration), metric.WithAttributes(
		attribute.String("form.name", formName),
		attribute.String("operation", "submit"),
	))

	AddSpanEvent(ctx, "form.submit.completed", map[string]string{
		"form.name":   formName,
		"success":     fmt.Sprintf("%t", success),
		"duration.ms": fmt.Sprintf("%.2f", milliseconds(duration)),
	})
}

func (o *otelObserver) OnTranslationStart(ctx context.Context, locale string, key string) {
	_, span := o.tracer.Start(ctx, "i18n.translation", trace.WithAttributes(
		attribute.String("locale", locale),
		attribute.String("key", key),
	))
	span.End()
}

func (o *otelObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
	AddSpanEvent(ctx, "i18n.translation.completed", map[string]string{
		"locale":      locale,
		"key":         key,
		"duration.ms": fmt.Sprintf("%.2f", milliseconds(duration)),
	})
}

func (o *otelObserver) OnLocaleDetection(ctx context.Context, detectedLocale string, fallbackUsed bool) {
	AddSpanEvent(ctx, "i18n.locale.detected", map[string]string{
		"locale":        detectedLocale,
		"fallback.used": fmt.Sprintf("%t", fallbackUsed),
	})
}

func (o *otelObserver) recordMetric(name string, value float64, attributes map[string]string) {
	// Ad-hoc metrics are recorded as span events on the background span.
	ctx := context.Background()
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		attrs := make([]attribute.KeyValue, 0, len(attributes)+2)
		attrs = append(attrs, attribute.String("metric.name", name))
		attrs = append(attrs, attribute.Float64("metric.value", value))
		attrs = append(attrs, toAttributes(attributes)...)
		span.AddEvent("metric.recorded", trace.WithAttributes(attrs...))
	}
}

func (o *otelObserver) spanLog(ctx context.Context, event, message string, err error, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(attributes)+2)
	attrs = append(attrs, attribute.String("message", message))
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	attrs = append(attrs, toAttributes(attributes)...)
	span.AddEvent(event, trace.WithAttributes(attrs...))
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// initOpenTelemetry initializes OpenTelemetry with the given configuration
func initOpenTelemetry(config Config) error {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	// No exporter is attached; callers wanting export register their own
	// span processor on the global provider.
	if config.EnableTracing {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if config.EnableMetrics {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
		)

		otel.SetMeterProvider(mp)
	}

	return nil
}
