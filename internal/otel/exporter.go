// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/z5labs/apio/concurrent"
	"github.com/z5labs/apio/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

type UnknownOTLPConnTypeError struct {
	Type config.OTLPConnType
}

func (e UnknownOTLPConnTypeError) Error() string {
	return fmt.Sprintf("unknown otlp conn type: %q", e.Type)
}

type UnknownExporterTypeError struct {
	Signal string
	Type   config.ExporterType
}

func (e UnknownExporterTypeError) Error() string {
	return fmt.Sprintf("unknown %s exporter type: %q", e.Signal, e.Type)
}

// exporters creates the exporter of each signal. A nil exporter with a nil
// error means the signal is dropped.
type exporters struct {
	conns *concurrent.Cache[string, *grpc.ClientConn]
}

func newExporters() exporters {
	return exporters{
		conns: concurrent.NewCache[string, *grpc.ClientConn](),
	}
}

func (e exporters) conn(cfg config.OTLP) (*grpc.ClientConn, error) {
	return e.conns.GetOr(cfg.Target, func() (*grpc.ClientConn, error) {
		creds := insecure.NewCredentials()
		if !cfg.Insecure {
			creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		}
		return grpc.NewClient(cfg.Target, grpc.WithTransportCredentials(creds))
	})
}

func (e exporters) close() error {
	var errs []error
	for _, cc := range e.conns.Values() {
		errs = append(errs, cc.Close())
	}
	return errors.Join(errs...)
}

func (e exporters) span(ctx context.Context, cfg config.Exporter) (trace.SpanExporter, error) {
	switch cfg.Type {
	case "", config.NoneExporter:
		return nil, nil
	case config.OTLPExporter:
	default:
		return nil, UnknownExporterTypeError{Signal: "span", Type: cfg.Type}
	}

	switch cfg.OTLP.Type {
	case config.OTLPGRPC:
		cc, err := e.conn(cfg.OTLP)
		if err != nil {
			return nil, err
		}
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithGRPCConn(cc),
			otlptracegrpc.WithHeaders(cfg.OTLP.Headers),
		)
	case config.OTLPHTTP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.OTLP.Target),
			otlptracehttp.WithHeaders(cfg.OTLP.Headers),
		}
		if cfg.OTLP.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, UnknownOTLPConnTypeError{Type: cfg.OTLP.Type}
	}
}

func (e exporters) metric(ctx context.Context, cfg config.Exporter) (metric.Exporter, error) {
	switch cfg.Type {
	case "", config.NoneExporter:
		return nil, nil
	case config.OTLPExporter:
	default:
		return nil, UnknownExporterTypeError{Signal: "metric", Type: cfg.Type}
	}

	switch cfg.OTLP.Type {
	case config.OTLPGRPC:
		cc, err := e.conn(cfg.OTLP)
		if err != nil {
			return nil, err
		}
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithGRPCConn(cc),
			otlpmetricgrpc.WithHeaders(cfg.OTLP.Headers),
		)
	case config.OTLPHTTP:
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.OTLP.Target),
			otlpmetrichttp.WithHeaders(cfg.OTLP.Headers),
		}
		if cfg.OTLP.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, UnknownOTLPConnTypeError{Type: cfg.OTLP.Type}
	}
}

func (e exporters) log(ctx context.Context, cfg config.Exporter) (log.Exporter, error) {
	switch cfg.Type {
	case "", config.NoneExporter:
		return nil, nil
	case config.StdoutExporter:
		return newJSONExporter(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})), nil
	case config.OTLPExporter:
	default:
		return nil, UnknownExporterTypeError{Signal: "log", Type: cfg.Type}
	}

	switch cfg.OTLP.Type {
	case config.OTLPGRPC:
		cc, err := e.conn(cfg.OTLP)
		if err != nil {
			return nil, err
		}
		return otlploggrpc.New(
			ctx,
			otlploggrpc.WithGRPCConn(cc),
			otlploggrpc.WithHeaders(cfg.OTLP.Headers),
		)
	case config.OTLPHTTP:
		opts := []otlploghttp.Option{
			otlploghttp.WithEndpoint(cfg.OTLP.Target),
			otlploghttp.WithHeaders(cfg.OTLP.Headers),
		}
		if cfg.OTLP.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, opts...)
	default:
		return nil, UnknownOTLPConnTypeError{Type: cfg.OTLP.Type}
	}
}
