// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/z5labs/apio/rest"

func newRenderedCounter() (metric.Int64Counter, error) {
	meter := otel.GetMeterProvider().Meter(meterName)

	return meter.Int64Counter(
		"apio.documents.rendered",
		metric.WithDescription("Total number of documents rendered"),
		metric.WithUnit("{document}"),
	)
}

// kind is one of "single", "page" or "error".
func (api *Api) recordRendered(ctx context.Context, mediaType, kind string) {
	api.rendered.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("media_type", mediaType),
			attribute.String("kind", kind),
		),
	)
}
