// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/z5labs/apio/writer"

	"go.opentelemetry.io/otel/trace"
)

// writeError renders err in the error format negotiated for r. If the
// client accepts no error format the response has the status 406 and no
// body.
func (api *Api) writeError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	api.log.ErrorContext(ctx, "sending error response", slog.Any("error", err))

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)

	apiErr := api.converters.Convert(err)

	mapper, nerr := api.negotiator.Error(r.Header.Get("Accept"))
	if nerr != nil {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}

	body, werr := writer.ErrorWriter{
		Error:  apiErr,
		Mapper: mapper,
	}.Write()
	if werr != nil {
		api.log.ErrorContext(ctx, "failed to render error response", slog.Any("error", werr))
		w.WriteHeader(apiErr.StatusCode)
		return
	}

	w.Header().Set("Content-Type", mapper.MediaType())
	w.WriteHeader(apiErr.StatusCode)
	_, werr = io.WriteString(w, body)
	if werr != nil {
		span.RecordError(werr)
		return
	}
	api.recordRendered(ctx, mapper.MediaType(), "error")
}
