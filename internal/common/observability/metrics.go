package observability

import (
	"context"
	"errors"
	"time"

	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Observability owns the OpenTelemetry meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

type Options struct {
	Config     config.ObservabilityConfig
	Registerer promclient.Registerer
	Logger     logger.Logger
}

// New installs global meter and tracer providers. Failures degrade to a
// partially configured instance rather than stopping the process.
func New(opts Options) *Observability {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	reg := opts.Registerer
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	name := opts.Config.ServiceName
	if name == "" {
		name = "studyabroad-workers"
	}

	res := resource.NewSchemaless(attribute.String("service.name", name))
	o := &Observability{}

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		log.Warn("prometheus exporter unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(o.meterProvider)

		meter := o.meterProvider.Meter(name)
		o.jobCounter, _ = meter.Int64Counter(
			"jobs.processed",
			otelmetric.WithDescription("Number of jobs processed"),
		)
		o.jobDuration, _ = meter.Float64Histogram(
			"jobs.duration",
			otelmetric.WithDescription("Job processing duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.Config.SampleRatio))),
	}
	if endpoint := opts.Config.JaegerEndpoint; endpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
		if err != nil {
			log.Warn("jaeger exporter unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
		}
	}
	o.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(o.tracerProvider)

	return o
}

// RecordJob counts one finished job and its duration.
func (o *Observability) RecordJob(ctx context.Context, taskType, status string, d time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, attrs)
	}
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(d.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
