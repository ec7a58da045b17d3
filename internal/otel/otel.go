// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel initializes the global OpenTelemetry providers from config.
package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/z5labs/apio/config"

	"github.com/z5labs/bedrock/lifecycle"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Initialize sets the global trace, meter and logger providers as well as
// the W3C trace context and baggage propagators.
func Initialize(ctx context.Context, cfg config.OTel) error {
	r, err := newResource(ctx, cfg.Resource)
	if err != nil {
		return fmt.Errorf("detecting resource: %w", err)
	}

	exps := newExporters()

	tp, err := tracerProvider(ctx, cfg.Trace, r, exps)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	mp, err := meterProvider(ctx, cfg.Metric, r, exps)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	lp, err := loggerProvider(ctx, cfg.Log, r, exps)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	if lc, ok := lifecycle.FromContext(ctx); ok {
		lc.OnPostRun(lifecycle.HookFunc(func(ctx context.Context) error {
			// Providers flush through the shared grpc conns so they must
			// stop before the conns close.
			return errors.Join(
				tp.Shutdown(ctx),
				mp.Shutdown(ctx),
				lp.Shutdown(ctx),
				exps.close(),
			)
		}))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	global.SetLoggerProvider(lp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.Metric.Runtime {
		return runtime.Start(
			runtime.WithMeterProvider(mp),
			runtime.WithMinimumReadMemStatsInterval(time.Second),
		)
	}
	return nil
}

type UnknownSpanProcessorTypeError struct {
	Type config.SpanProcessorType
}

func (e UnknownSpanProcessorTypeError) Error() string {
	return fmt.Sprintf("unknown span processor type: %q", e.Type)
}

func tracerProvider(ctx context.Context, cfg config.Trace, r *resource.Resource, exps exporters) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(r),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.Sampling.Ratio))),
	}

	exp, err := exps.span(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return trace.NewTracerProvider(opts...), nil
	}

	switch cfg.Processor.Type {
	case config.BatchSpanProcessorType:
		opts = append(opts, trace.WithBatcher(
			exp,
			trace.WithBatchTimeout(cfg.Processor.Batch.ExportInterval),
			trace.WithMaxExportBatchSize(cfg.Processor.Batch.MaxSize),
		))
	case config.SimpleSpanProcessorType:
		opts = append(opts, trace.WithSyncer(exp))
	default:
		return nil, UnknownSpanProcessorTypeError{Type: cfg.Processor.Type}
	}
	return trace.NewTracerProvider(opts...), nil
}

type UnknownMetricReaderTypeError struct {
	Type config.MetricReaderType
}

func (e UnknownMetricReaderTypeError) Error() string {
	return fmt.Sprintf("unknown metric reader type: %q", e.Type)
}

func meterProvider(ctx context.Context, cfg config.Metric, r *resource.Resource, exps exporters) (*metric.MeterProvider, error) {
	exp, err := exps.metric(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return metric.NewMeterProvider(metric.WithResource(r)), nil
	}

	switch cfg.Reader.Type {
	case config.PeriodicReaderType:
		readerOpts := []metric.PeriodicReaderOption{
			metric.WithInterval(cfg.Reader.Periodic.ExportInterval),
		}
		if cfg.Runtime {
			readerOpts = append(readerOpts, metric.WithProducer(runtime.NewProducer()))
		}
		return metric.NewMeterProvider(
			metric.WithResource(r),
			metric.WithReader(metric.NewPeriodicReader(exp, readerOpts...)),
		), nil
	default:
		return nil, UnknownMetricReaderTypeError{Type: cfg.Reader.Type}
	}
}

type UnknownLogProcessorTypeError struct {
	Type config.LogProcessorType
}

func (e UnknownLogProcessorTypeError) Error() string {
	return fmt.Sprintf("unknown log processor type: %q", e.Type)
}

func loggerProvider(ctx context.Context, cfg config.Log, r *resource.Resource, exps exporters) (*log.LoggerProvider, error) {
	exp, err := exps.log(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return log.NewLoggerProvider(log.WithResource(r)), nil
	}

	var p log.Processor
	switch cfg.Processor.Type {
	case config.SimpleLogProcessorType:
		p = log.NewSimpleProcessor(exp)
	case config.BatchLogProcessorType:
		p = log.NewBatchProcessor(
			exp,
			log.WithExportInterval(cfg.Processor.Batch.ExportInterval),
			log.WithExportMaxBatchSize(cfg.Processor.Batch.MaxSize),
		)
	default:
		return nil, UnknownLogProcessorTypeError{Type: cfg.Processor.Type}
	}
	if len(cfg.Levels) > 0 {
		p = newFilteringProcessor(p, cfg.Levels)
	}

	return log.NewLoggerProvider(
		log.WithResource(r),
		log.WithProcessor(p),
	), nil
}
