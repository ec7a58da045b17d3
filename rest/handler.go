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
	"net/url"
	"strconv"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/resolver"
	"github.com/z5labs/apio/routes"
	"github.com/z5labs/apio/uri"
	"github.com/z5labs/apio/writer"

	"github.com/go-chi/chi/v5"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

const tracerName = "github.com/z5labs/apio/rest"

func (api *Api) serveResource(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "Api.serveResource")
	defer span.End()

	format, err := api.negotiator.Document(r.Header.Get("Accept"))
	if err != nil {
		span.RecordError(err)
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}

	req, err := api.resolverRequest(w, r)
	if err != nil {
		api.writeError(ctx, w, r, err)
		return
	}
	span.SetAttributes(
		attribute.String("apio.resource", req.Resource),
		attribute.String("apio.media_type", format.MediaType),
	)

	res, err := api.resolver.Resolve(ctx, req)
	if err != nil {
		api.writeError(ctx, w, r, err)
		return
	}
	span.SetAttributes(attribute.String("apio.operation", res.Operation.Name))

	urls, err := api.serverURLs(r)
	if err != nil {
		api.writeError(ctx, w, r, err)
		return
	}
	lang := api.localizer.NegotiateHeader(r.Header.Get("Accept-Language"))

	switch res.Kind {
	case routes.SingleResult:
		api.writeSingle(ctx, w, r, format, res, urls, lang)
	case routes.PageResult:
		api.writePage(ctx, w, r, format, res, urls, lang)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (api *Api) writeSingle(ctx context.Context, w http.ResponseWriter, r *http.Request, format message.Format, res resolver.Result, urls uri.Creator, lang language.Tag) {
	body, ok, err := writer.SingleModelWriter{
		Model:    res.Single,
		Mapper:   format.Single,
		Lookup:   api.registry,
		URLs:     urls,
		Language: lang,
	}.Write()
	if err != nil {
		api.writeError(ctx, w, r, err)
		return
	}
	if !ok {
		api.writeError(ctx, w, r, apierror.NotFoundError{Resource: res.Single.ResourceName})
		return
	}

	status := http.StatusOK
	if isCreate(res) {
		status = http.StatusCreated
		if loc, ok := api.location(res.Single, urls); ok {
			w.Header().Set("Location", loc)
		}
	}
	api.writeDocument(ctx, w, format.MediaType, "single", status, lang, body)
}

func (api *Api) writePage(ctx context.Context, w http.ResponseWriter, r *http.Request, format message.Format, res resolver.Result, urls uri.Creator, lang language.Tag) {
	body, err := writer.PageWriter{
		Page:     res.Page,
		Mapper:   format.Page,
		Lookup:   api.registry,
		URLs:     urls,
		Language: lang,
	}.Write()
	if err != nil {
		api.writeError(ctx, w, r, err)
		return
	}
	api.writeDocument(ctx, w, format.MediaType, "page", http.StatusOK, lang, body)
}

func (api *Api) writeDocument(ctx context.Context, w http.ResponseWriter, mediaType, kind string, status int, lang language.Tag, body string) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Language", lang.String())
	w.WriteHeader(status)
	_, err := io.WriteString(w, body)
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		return
	}
	api.recordRendered(ctx, mediaType, kind)
}

func isCreate(res resolver.Result) bool {
	op := res.Operation
	return !op.Custom && op.Name == operation.Name(res.Single.ResourceName, operation.ActionCreate)
}

func (api *Api) location(s model.Single[any], urls uri.Creator) (string, bool) {
	rsc, ok := api.registry.Lookup(s.ResourceName)
	if !ok {
		return "", false
	}
	p, err := rsc.Mapper.Path(rsc.Name, rsc.Representor.Identifier(s.Model))
	if err != nil {
		return "", false
	}
	return urls.Single(p), true
}

// InvalidPathError is the cause of a bad request for a path segment which
// is not properly escaped.
type InvalidPathError struct {
	Segment string
	Cause   error
}

func (e InvalidPathError) Error() string {
	return "invalid path segment " + strconv.Quote(e.Segment) + ": " + e.Cause.Error()
}

func (e InvalidPathError) Unwrap() error {
	return e.Cause
}

// pathParam returns the unescaped value of a chi URL parameter. chi matches
// against the escaped path whenever one is present.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	s, err := url.PathUnescape(v)
	if err != nil {
		return "", apierror.BadRequestError{Cause: InvalidPathError{Segment: v, Cause: err}}
	}
	return s, nil
}

func (api *Api) resolverRequest(w http.ResponseWriter, r *http.Request) (resolver.Request, error) {
	var req resolver.Request
	var err error

	req.Method = r.Method
	req.Resource, err = pathParam(r, "name")
	if err != nil {
		return req, err
	}
	req.ID, err = pathParam(r, "id")
	if err != nil {
		return req, err
	}
	req.Sub, err = pathParam(r, "sub")
	if err != nil {
		return req, err
	}

	if api.mayPage(req) {
		req.Pagination, err = api.paginationOf(r)
		if err != nil {
			return req, err
		}
	}

	req.Credentials, err = api.credentials(r)
	if err != nil {
		return req, err
	}

	if !hasBody(r.Method) {
		return req, nil
	}
	if api.maxBodyBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, api.maxBodyBytes)
	}
	req.Body, err = readBody(r)
	if err != nil {
		return req, err
	}
	return req, nil
}

// hasBody reports whether requests with the given method carry a body
// handlers may read.
func hasBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return false
	default:
		return true
	}
}

// mayPage reports whether req could resolve to a page: a collection, a
// nested collection or a custom route.
func (api *Api) mayPage(req resolver.Request) bool {
	if req.ID == "" || req.Sub != "" {
		return true
	}
	rsc, ok := api.registry.Lookup(req.Resource)
	if !ok {
		return false
	}
	return rsc.Routes.HasCustom(true, req.ID)
}

// InvalidQueryParamError is the cause of a bad request for a query parameter
// which is not an integer.
type InvalidQueryParamError struct {
	Name  string
	Value string
}

func (e InvalidQueryParamError) Error() string {
	return "query parameter " + e.Name + " must be an integer: " + strconv.Quote(e.Value)
}

func (api *Api) paginationOf(r *http.Request) (model.Pagination, error) {
	q := r.URL.Query()

	queryInt := func(name string, def int) (int, error) {
		v := q.Get(name)
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, apierror.BadRequestError{Cause: InvalidQueryParamError{Name: name, Value: v}}
		}
		return n, nil
	}

	page, err := queryInt("page", 1)
	if err != nil {
		return model.Pagination{}, err
	}
	perPage, err := queryInt("per_page", api.pagination.DefaultItemsPerPage)
	if err != nil {
		return model.Pagination{}, err
	}
	return model.NewPagination(perPage, page, api.pagination.MaxItemsPerPage)
}

func readBody(r *http.Request) (b []byte, err error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer try.Close(&err, r.Body)

	b, err = io.ReadAll(r.Body)
	if err == nil {
		return b, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, apierror.BadRequestError{Cause: err}
	}
	return nil, err
}

// serverURLs returns the configured server URL or derives it from r.
func (api *Api) serverURLs(r *http.Request) (uri.Creator, error) {
	if api.urls != nil {
		return *api.urls, nil
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	c, err := uri.ParseServerURL(scheme + "://" + r.Host)
	if err != nil {
		return uri.Creator{}, apierror.BadRequestError{Cause: err}
	}
	return c, nil
}
