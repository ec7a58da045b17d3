// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// jsonExporter hands log records back to a slog handler, so logs are
// readable without a collector.
type jsonExporter struct {
	handler slog.Handler
}

func newJSONExporter(h slog.Handler) *jsonExporter {
	return &jsonExporter{handler: h}
}

func (e *jsonExporter) Export(ctx context.Context, records []sdklog.Record) error {
	for _, record := range records {
		err := e.handler.Handle(ctx, e.toSlog(record))
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *jsonExporter) toSlog(record sdklog.Record) slog.Record {
	sr := slog.NewRecord(record.Timestamp(), slogLevel(record.Severity()), record.Body().AsString(), 0)
	sr.AddAttrs(slog.String("logger", record.InstrumentationScope().Name))

	record.WalkAttributes(func(kv log.KeyValue) bool {
		sr.AddAttrs(slog.Attr{Key: kv.Key, Value: slogValue(kv.Value)})
		return true
	})

	if record.TraceID().IsValid() {
		sr.AddAttrs(slog.Group(
			"otel",
			slog.String("trace.id", record.TraceID().String()),
			slog.String("span.id", record.SpanID().String()),
		))
	}
	return sr
}

// slogLevel inverts the severity mapping of the otelslog bridge.
func slogLevel(s log.Severity) slog.Level {
	const offset = log.SeverityDebug - log.Severity(slog.LevelDebug)
	return slog.Level(s - offset)
}

func slogValue(v log.Value) slog.Value {
	switch v.Kind() {
	case log.KindBool:
		return slog.BoolValue(v.AsBool())
	case log.KindInt64:
		return slog.Int64Value(v.AsInt64())
	case log.KindFloat64:
		return slog.Float64Value(v.AsFloat64())
	case log.KindString:
		return slog.StringValue(v.AsString())
	case log.KindBytes:
		return slog.AnyValue(v.AsBytes())
	case log.KindSlice:
		vs := v.AsSlice()
		out := make([]any, 0, len(vs))
		for _, elem := range vs {
			out = append(out, slogValue(elem).Any())
		}
		return slog.AnyValue(out)
	case log.KindMap:
		kvs := v.AsMap()
		attrs := make([]slog.Attr, 0, len(kvs))
		for _, kv := range kvs {
			attrs = append(attrs, slog.Attr{Key: kv.Key, Value: slogValue(kv.Value)})
		}
		return slog.GroupValue(attrs...)
	default:
		return slog.StringValue(v.String())
	}
}

func (*jsonExporter) ForceFlush(context.Context) error {
	return nil
}

func (*jsonExporter) Shutdown(context.Context) error {
	return nil
}
