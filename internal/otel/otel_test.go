// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/z5labs/apio/config"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/log/logtest"
	"google.golang.org/grpc/connectivity"
)

var otlpHTTP = config.Exporter{
	Type: config.OTLPExporter,
	OTLP: config.OTLP{
		Type:     config.OTLPHTTP,
		Target:   "localhost:4318",
		Insecure: true,
	},
}

func TestInitialize(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		testCases := []struct {
			Name   string
			Config config.OTel
			Assert func(*testing.T, error)
		}{
			{
				Name: "if a unknown otlp conn type is configured for span exporting",
				Config: config.OTel{
					Trace: config.Trace{
						Exporter: config.Exporter{
							Type: config.OTLPExporter,
							OTLP: config.OTLP{Type: "unknown"},
						},
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownOTLPConnTypeError
					require.ErrorAs(t, err, &uerr)
					require.Equal(t, config.OTLPConnType("unknown"), uerr.Type)
					require.NotEmpty(t, uerr.Error())
				},
			},
			{
				Name: "if spans are exported to stdout",
				Config: config.OTel{
					Trace: config.Trace{
						Exporter: config.Exporter{Type: config.StdoutExporter},
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownExporterTypeError
					require.ErrorAs(t, err, &uerr)
					require.Equal(t, "span", uerr.Signal)
					require.NotEmpty(t, uerr.Error())
				},
			},
			{
				Name: "if a unknown span processor type is configured",
				Config: config.OTel{
					Trace: config.Trace{
						Processor: config.SpanProcessor{Type: "unknown"},
						Exporter:  otlpHTTP,
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownSpanProcessorTypeError
					require.ErrorAs(t, err, &uerr)
					require.Equal(t, config.SpanProcessorType("unknown"), uerr.Type)
					require.NotEmpty(t, uerr.Error())
				},
			},
			{
				Name: "if a unknown otlp conn type is configured for metric exporting",
				Config: config.OTel{
					Metric: config.Metric{
						Exporter: config.Exporter{
							Type: config.OTLPExporter,
							OTLP: config.OTLP{Type: "unknown"},
						},
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownOTLPConnTypeError
					require.ErrorAs(t, err, &uerr)
					require.Equal(t, config.OTLPConnType("unknown"), uerr.Type)
				},
			},
			{
				Name: "if a unknown metric reader type is configured",
				Config: config.OTel{
					Metric: config.Metric{
						Reader:   config.MetricReader{Type: "unknown"},
						Exporter: otlpHTTP,
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownMetricReaderTypeError
					require.ErrorAs(t, err, &uerr)
					require.Equal(t, config.MetricReaderType("unknown"), uerr.Type)
					require.NotEmpty(t, uerr.Error())
				},
			},
			{
				Name: "if a unknown otlp conn type is configured for log exporting",
				Config: config.OTel{
					Log: config.Log{
						Exporter: config.Exporter{
							Type: config.OTLPExporter,
							OTLP: config.OTLP{Type: "unknown"},
						},
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownOTLPConnTypeError
					require.ErrorAs(t, err, &uerr)
				},
			},
			{
				Name: "if a unknown log exporter type is configured",
				Config: config.OTel{
					Log: config.Log{
						Exporter: config.Exporter{Type: "kafka"},
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownExporterTypeError
					require.ErrorAs(t, err, &uerr)
					require.Equal(t, "log", uerr.Signal)
					require.Equal(t, config.ExporterType("kafka"), uerr.Type)
				},
			},
			{
				Name: "if a unknown log processor type is configured",
				Config: config.OTel{
					Log: config.Log{
						Processor: config.LogProcessor{Type: "unknown"},
						Exporter:  config.Exporter{Type: config.StdoutExporter},
					},
				},
				Assert: func(t *testing.T, err error) {
					var uerr UnknownLogProcessorTypeError
					require.ErrorAs(t, err, &uerr)
					require.Equal(t, config.LogProcessorType("unknown"), uerr.Type)
					require.NotEmpty(t, uerr.Error())
				},
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				err := Initialize(t.Context(), testCase.Config)
				testCase.Assert(t, err)
			})
		}
	})

	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if every signal is dropped", func(t *testing.T) {
			err := Initialize(t.Context(), config.OTel{})
			require.NoError(t, err)
		})

		t.Run("if logs are printed with levels configured", func(t *testing.T) {
			err := Initialize(t.Context(), config.OTel{
				Log: config.Log{
					Processor: config.LogProcessor{Type: config.SimpleLogProcessorType},
					Exporter:  config.Exporter{Type: config.StdoutExporter},
					Levels: map[string]string{
						"github.com/z5labs/apio/registry": "warn",
					},
				},
			})
			require.NoError(t, err)
		})
	})
}

func TestExporters_conn(t *testing.T) {
	t.Run("will share a connection per target", func(t *testing.T) {
		exps := newExporters()
		cfg := config.OTLP{Type: config.OTLPGRPC, Target: "localhost:4317", Insecure: true}

		a, err := exps.conn(cfg)
		require.NoError(t, err)
		b, err := exps.conn(cfg)
		require.NoError(t, err)

		require.Same(t, a, b)
		require.NoError(t, exps.close())
	})

	t.Run("will close every connection", func(t *testing.T) {
		exps := newExporters()

		a, err := exps.conn(config.OTLP{Type: config.OTLPGRPC, Target: "localhost:4317", Insecure: true})
		require.NoError(t, err)
		b, err := exps.conn(config.OTLP{Type: config.OTLPGRPC, Target: "localhost:4318", Insecure: true})
		require.NoError(t, err)

		require.NoError(t, exps.close())
		require.Equal(t, connectivity.Shutdown, a.GetState())
		require.Equal(t, connectivity.Shutdown, b.GetState())
	})
}

func TestServiceName(t *testing.T) {
	t.Run("will use the configured name", func(t *testing.T) {
		require.Equal(t, "people", serviceName("people"))
	})

	t.Run("will derive the name from the executable", func(t *testing.T) {
		t.Run("if no name is configured", func(t *testing.T) {
			require.True(t, strings.HasPrefix(serviceName(""), "unknown_service:"))
		})
	})
}

func TestJSONExporter_Export(t *testing.T) {
	t.Run("will print records as json", func(t *testing.T) {
		var buf bytes.Buffer
		exp := newJSONExporter(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		factory := logtest.RecordFactory{
			Severity:             log.SeverityWarn,
			Body:                 log.StringValue("health check failed"),
			InstrumentationScope: &instrumentation.Scope{Name: "github.com/z5labs/apio/rest"},
			Attributes: []log.KeyValue{
				log.Int64("status", 503),
				log.Map("probe", log.String("name", "readiness")),
			},
		}

		err := exp.Export(context.Background(), []sdklog.Record{factory.NewRecord()})
		require.NoError(t, err)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "WARN", line["level"])
		require.Equal(t, "health check failed", line["msg"])
		require.Equal(t, "github.com/z5labs/apio/rest", line["logger"])
		require.EqualValues(t, 503, line["status"])
		require.Equal(t, map[string]any{"name": "readiness"}, line["probe"])
		require.NotContains(t, line, "otel")
	})
}
