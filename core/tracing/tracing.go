// Package tracing installs the process-wide OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/routeweather/core/buildinfo"
	coreconfig "github.com/m3rciful/routeweather/core/config"
)

// Provider owns the installed tracer provider.
type Provider struct {
	tp trace.TracerProvider
}

// Setup builds a tracer provider from cfg and registers it globally. With no
// endpoint configured spans are still created, so trace ids reach the logs,
// but nothing is exported.
func Setup(ctx context.Context, cfg coreconfig.TracingConfig) (*Provider, error) {
	res, err := buildResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio(cfg.SampleRatio)))),
	}

	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		var exOpts []otlptracehttp.Option
		if strings.Contains(endpoint, "://") {
			exOpts = append(exOpts, otlptracehttp.WithEndpointURL(endpoint))
		} else {
			exOpts = append(exOpts, otlptracehttp.WithEndpoint(endpoint))
		}
		if cfg.Insecure {
			exOpts = append(exOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if closer, ok := p.tp.(interface {
		Shutdown(context.Context) error
	}); ok {
		return closer.Shutdown(ctx)
	}
	return nil
}

// End records err on span, sets its status and ends it.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func ratio(r float64) float64 {
	if r <= 0 || r > 1 {
		return 1
	}
	return r
}

func buildResource(service string) (*resource.Resource, error) {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "routeweather"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(service),
		semconv.ServiceVersion(buildinfo.Version),
	}
	base := resource.Default()
	schema := base.SchemaURL()
	if schema == "" {
		schema = semconv.SchemaURL
	}
	res, err := resource.Merge(base, resource.NewWithAttributes(schema, attrs...))
	if err != nil {
		return nil, errors.Join(errors.New("tracing: build resource"), err)
	}
	return res, nil
}
