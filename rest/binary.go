// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/representor"
	"github.com/z5labs/apio/resolver"
	"github.com/z5labs/apio/routes"

	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// serveBinary streams a binary field of an item. The item is fetched through
// its retrieve route, so the route's permission applies to its payloads too.
func (api *Api) serveBinary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "Api.serveBinary")
	defer span.End()

	file, err := api.binary(ctx, r)
	if err != nil {
		api.writeError(ctx, w, r, err)
		return
	}

	err = streamBinary(w, file)
	if err != nil {
		span.RecordError(err)
	}
}

func (api *Api) binary(ctx context.Context, r *http.Request) (representor.BinaryFile, error) {
	name, err := pathParam(r, "name")
	if err != nil {
		return representor.BinaryFile{}, err
	}
	id, err := pathParam(r, "id")
	if err != nil {
		return representor.BinaryFile{}, err
	}
	key, err := pathParam(r, "binaryId")
	if err != nil {
		return representor.BinaryFile{}, err
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("apio.resource", name),
		attribute.String("apio.binary", key),
	)

	rsc, ok := api.registry.Lookup(name)
	if !ok {
		return representor.BinaryFile{}, apierror.NotFoundError{Resource: name}
	}
	field, ok := rsc.Representor.Binary(key)
	if !ok {
		return representor.BinaryFile{}, apierror.NotFoundError{
			Resource: name,
			Cause:    representor.BinaryNotFoundError{Key: key},
		}
	}

	credentials, err := api.credentials(r)
	if err != nil {
		return representor.BinaryFile{}, err
	}

	res, err := api.resolver.Item(ctx, resolver.Request{
		Method:      http.MethodGet,
		Resource:    name,
		ID:          id,
		Credentials: credentials,
	})
	if err != nil {
		return representor.BinaryFile{}, err
	}
	if res.Kind != routes.SingleResult {
		return representor.BinaryFile{}, apierror.NotFoundError{Resource: name}
	}

	file, err := field.Content(ctx, res.Single.Model)
	var missing representor.BinaryNotFoundError
	if errors.As(err, &missing) {
		return representor.BinaryFile{}, apierror.NotFoundError{Resource: name, Cause: err}
	}
	if err != nil {
		return representor.BinaryFile{}, err
	}
	if file.Content == nil {
		return representor.BinaryFile{}, apierror.NotFoundError{
			Resource: name,
			Cause:    representor.BinaryNotFoundError{Key: key},
		}
	}
	return file, nil
}

func streamBinary(w http.ResponseWriter, file representor.BinaryFile) (err error) {
	defer try.Close(&err, file.Content)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, file.Content)
	return err
}
