// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config holds the typed configuration shared by apio applications.
//
// Every struct is unmarshaled from YAML by bedrock's config package, so
// fields are tagged with `config:"..."` instead of `yaml:"..."`.
package config

import (
	"time"
)

// Resource identifies the service in every exported signal. An empty
// service name is derived from the executable.
type Resource struct {
	ServiceName    string `config:"service_name"`
	ServiceVersion string `config:"service_version"`
}

// Batch tunes a batching span or log processor.
type Batch struct {
	ExportInterval time.Duration `config:"export_interval"`
	MaxSize        int           `config:"max_size"`
}

// OTLPConnType is the transport of an OTLP exporter.
type OTLPConnType string

const (
	OTLPHTTP OTLPConnType = "http"
	OTLPGRPC OTLPConnType = "grpc"
)

// OTLP configures the connection to a collector. gRPC exporters with the
// same target share one client connection.
type OTLP struct {
	Type   OTLPConnType `config:"type"`
	Target string       `config:"target"`

	// Insecure disables TLS.
	Insecure bool `config:"insecure"`

	Headers map[string]string `config:"headers"`
}

// ExporterType selects where a signal is exported to.
type ExporterType string

const (
	// NoneExporter drops the signal.
	NoneExporter ExporterType = "none"

	// OTLPExporter sends the signal to a collector.
	OTLPExporter ExporterType = "otlp"

	// StdoutExporter prints log records to stdout as JSON. It is only
	// supported for logs.
	StdoutExporter ExporterType = "stdout"
)

// Exporter configures the exporter of a signal.
type Exporter struct {
	Type ExporterType `config:"type"`
	OTLP OTLP         `config:"otlp"`
}

type SpanProcessorType string

const (
	BatchSpanProcessorType  SpanProcessorType = "batch"
	SimpleSpanProcessorType SpanProcessorType = "simple"
)

type SpanProcessor struct {
	Type  SpanProcessorType `config:"type"`
	Batch Batch             `config:"batch"`
}

// SpanSampling samples a ratio of new traces. Child spans follow the
// sampling decision of their parent.
type SpanSampling struct {
	Ratio float64 `config:"ratio"`
}

type Trace struct {
	Processor SpanProcessor `config:"processor"`
	Sampling  SpanSampling  `config:"sampling"`
	Exporter  Exporter      `config:"exporter"`
}

type MetricReaderType string

const (
	PeriodicReaderType MetricReaderType = "periodic"
)

type PeriodicReader struct {
	ExportInterval time.Duration `config:"export_interval"`
}

type MetricReader struct {
	Type     MetricReaderType `config:"type"`
	Periodic PeriodicReader   `config:"periodic"`
}

type Metric struct {
	Reader   MetricReader `config:"reader"`
	Exporter Exporter     `config:"exporter"`

	// Runtime enables Go runtime metrics.
	Runtime bool `config:"runtime"`
}

type LogProcessorType string

const (
	SimpleLogProcessorType LogProcessorType = "simple"
	BatchLogProcessorType  LogProcessorType = "batch"
)

type LogProcessor struct {
	Type  LogProcessorType `config:"type"`
	Batch Batch            `config:"batch"`
}

type Log struct {
	Processor LogProcessor `config:"processor"`
	Exporter  Exporter     `config:"exporter"`

	// Levels sets the minimum level per logger name, e.g.
	// "github.com/z5labs/apio/registry": "warn". Names match by prefix.
	Levels map[string]string `config:"levels"`
}

// OTel configures the OpenTelemetry SDK.
type OTel struct {
	Resource Resource `config:"resource"`
	Trace    Trace    `config:"trace"`
	Metric   Metric   `config:"metric"`
	Log      Log      `config:"log"`
}
