// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// filteringProcessor drops records below a minimum severity configured per
// logger name before handing them to inner.
//
// Logger names match by prefix, the longest configured prefix wins, so
// "github.com/z5labs/apio" covers "github.com/z5labs/apio/registry" unless
// the latter is configured itself. Loggers matching no prefix are not
// filtered.
type filteringProcessor struct {
	inner    sdklog.Processor
	levels   map[string]log.Severity
	prefixes []string
}

func newFilteringProcessor(inner sdklog.Processor, levels map[string]string) *filteringProcessor {
	fp := &filteringProcessor{
		inner:    inner,
		levels:   make(map[string]log.Severity, len(levels)),
		prefixes: make([]string, 0, len(levels)),
	}
	for name, level := range levels {
		fp.levels[name] = parseLogLevel(level)
		fp.prefixes = append(fp.prefixes, name)
	}
	slices.SortFunc(fp.prefixes, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return fp
}

// parseLogLevel maps "debug", "info", "warn"/"warning" and "error" to a
// severity. Anything else lets every record through.
func parseLogLevel(level string) log.Severity {
	switch strings.ToLower(level) {
	case "info":
		return log.SeverityInfo
	case "warn", "warning":
		return log.SeverityWarn
	case "error":
		return log.SeverityError
	default:
		return log.SeverityDebug
	}
}

func (p *filteringProcessor) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if !p.shouldEmit(record) {
		return nil
	}
	return p.inner.OnEmit(ctx, record)
}

func (p *filteringProcessor) shouldEmit(record *sdklog.Record) bool {
	floor, ok := p.minimumLevel(record.InstrumentationScope().Name)
	if !ok {
		return true
	}
	return record.Severity() >= floor
}

func (p *filteringProcessor) minimumLevel(name string) (log.Severity, bool) {
	if level, ok := p.levels[name]; ok {
		return level, true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(name, prefix) {
			return p.levels[prefix], true
		}
	}
	return 0, false
}

func (p *filteringProcessor) Shutdown(ctx context.Context) error {
	return p.inner.Shutdown(ctx)
}

func (p *filteringProcessor) ForceFlush(ctx context.Context) error {
	return p.inner.ForceFlush(ctx)
}
