// Package observability wires OpenTelemetry tracing and the Prometheus
// metrics endpoint.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/litescript/ls-exoquest/internal/config"
	"github.com/litescript/ls-exoquest/internal/logging"
	"github.com/litescript/ls-exoquest/internal/version"
)

const (
	defaultOTLPEndpoint = "localhost:4317"
	defaultServiceName  = "ls-exoquest"
	shutdownGrace       = 5 * time.Second
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// InitTracing installs the global tracer provider the catalog client picks
// up. With tracing off a noop provider is installed, so catalog spans cost
// nothing. Stdout spans go to w, which must not be the terminal the explorer
// draws on.
func InitTracing(ctx context.Context, cfg config.Config, w io.Writer, log *logging.Logger) (ShutdownFunc, error) {
	if log == nil {
		log = logging.Discard()
	}
	tc := cfg.Tracing

	if !tc.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug("tracing off")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newSpanExporter(ctx, tc, w)
	if err != nil {
		return nil, err
	}

	res, err := catalogResource(ctx, cfg)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler(tc.SampleRatio)),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("tracing catalog requests to %s (api %s, sample ratio %.2f)",
		tc.ExporterName(), cfg.APIBase, tc.SampleRatio)
	return tp.Shutdown, nil
}

// catalogResource describes this process and the catalog it talks to.
func catalogResource(ctx context.Context, cfg config.Config) (*resource.Resource, error) {
	service := cfg.Tracing.ServiceName
	if service == "" {
		service = defaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version.Version),
			attribute.String("exoquest.catalog.api_base", cfg.APIBase),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}
	return res, nil
}

// sampler keeps every span at ratio 1 and none at 0. Anything in between
// samples root spans by trace id and follows the parent otherwise.
func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newSpanExporter(ctx context.Context, tc config.Tracing, w io.Writer) (sdktrace.SpanExporter, error) {
	switch tc.ExporterName() {
	case config.ExporterStdout:
		if w == nil {
			w = os.Stderr
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithoutTimestamps(),
		)
	case config.ExporterOTLP:
		endpoint := tc.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
		if err != nil {
			return nil, fmt.Errorf("otlp exporter for %s: %w", endpoint, err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", tc.Exporter)
	}
}

// ShutdownWithTimeout flushes pending spans, giving up after a short grace
// period. Failures are logged, not returned.
func ShutdownWithTimeout(ctx context.Context, shutdown ShutdownFunc, log *logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Discard()
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("flush traces: %v", err)
	}
}
