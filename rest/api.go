// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"log/slog"
	"net/http"

	"github.com/z5labs/apio"
	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/config"
	"github.com/z5labs/apio/health"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/hal"
	"github.com/z5labs/apio/message/jsonld"
	"github.com/z5labs/apio/message/plainjson"
	"github.com/z5labs/apio/message/problemjson"
	"github.com/z5labs/apio/registry"
	"github.com/z5labs/apio/resolver"
	"github.com/z5labs/apio/uri"
	"github.com/z5labs/apio/writer"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/language"
)

// CredentialsExtractor identifies the caller of a request. The returned
// value is handed to route permissions and handlers as is.
type CredentialsExtractor func(*http.Request) (any, error)

// ApiOptions holds configuration values used when constructing an [Api].
type ApiOptions struct {
	serverURL   string
	formats     []message.Format
	negotiation []message.NegotiatorOption
	converters  *apierror.Converters
	pagination  config.Pagination
	localizer   *writer.Localizer
	credentials CredentialsExtractor
	maxBody     int64
	readiness   health.Monitor
	liveness    health.Monitor
	log         *slog.Logger
}

// ApiOption is an interface for configuring an [Api].
type ApiOption interface {
	ApplyApiOption(*ApiOptions)
}

type apiOptionFunc func(*ApiOptions)

func (f apiOptionFunc) ApplyApiOption(ao *ApiOptions) {
	f(ao)
}

// ServerURL fixes the server URL all links are built from. Without it the
// server URL is derived from each request's scheme and Host header.
func ServerURL(raw string) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.serverURL = raw
	})
}

// Formats replaces the supported media types. By default plain JSON, HAL
// and JSON-LD documents as well as problem+json errors are supported.
func Formats(fs ...message.Format) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.formats = fs
	})
}

// Negotiation configures the media types used when the client accepts any.
func Negotiation(cfg config.Negotiation) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		if cfg.FallbackMediaType != "" {
			ao.negotiation = append(ao.negotiation, message.DocumentFallback(cfg.FallbackMediaType))
		}
		if cfg.ErrorFallbackMediaType != "" {
			ao.negotiation = append(ao.negotiation, message.ErrorFallback(cfg.ErrorFallbackMediaType))
		}
	})
}

// Converters sets how errors are turned into error documents.
func Converters(c *apierror.Converters) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.converters = c
	})
}

// Pagination bounds the page size clients may request.
func Pagination(cfg config.Pagination) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.pagination = cfg
	})
}

// Locale sets how the language of localized fields is negotiated.
func Locale(l *writer.Localizer) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.localizer = l
	})
}

// Credentials sets how callers are identified.
func Credentials(f CredentialsExtractor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.credentials = f
	})
}

// MaxBodyBytes bounds the size of request bodies. Larger bodies are
// rejected as bad requests. Zero or less removes the bound.
func MaxBodyBytes(n int64) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.maxBody = n
	})
}

// Readiness configures the monitor behind GET /health/readiness.
//
// See [Liveness, Readiness, and Startup Probes] for more details.
//
// [Liveness, Readiness, and Startup Probes]: https://kubernetes.io/docs/concepts/configuration/liveness-readiness-startup-probes/
func Readiness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.readiness = m
	})
}

// Liveness configures the monitor behind GET /health/liveness.
func Liveness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.liveness = m
	})
}

// Logger sets the logger error responses are reported to.
func Logger(log *slog.Logger) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.log = log
	})
}

// Api is an [http.Handler] serving every resource of a [registry.Registry].
//
//	/p/{name}                     collection page, create and custom collection routes
//	/p/{name}/{id}                item routes
//	/p/{name}/{id}/{sub}          custom item routes and nested collections
//	GET /b/{name}/{id}/{binaryId} binary payloads
//	GET /f/{formId}               form schemas
//	GET /openapi.json             OpenAPI document
//	GET /health/liveness          liveness probe
//	GET /health/readiness         readiness probe
type Api struct {
	router *chi.Mux

	title       string
	version     string
	registry    *registry.Registry
	resolver    *resolver.Resolver
	negotiator  *message.Negotiator
	converters  *apierror.Converters
	localizer   *writer.Localizer
	urls         *uri.Creator
	pagination   config.Pagination
	credentials  CredentialsExtractor
	maxBodyBytes int64
	log          *slog.Logger
	rendered     metric.Int64Counter
}

// DefaultFormats are the formats an [Api] supports unless [Formats] is given.
func DefaultFormats() []message.Format {
	return []message.Format{
		plainjson.Format(),
		hal.Format(),
		jsonld.Format(),
		problemjson.Format(),
	}
}

// NewApi creates a new [Api] with the specified title and version, which are
// included in the OpenAPI document. It fails if the server URL is malformed
// or the formats conflict.
func NewApi(title, version string, reg *registry.Registry, opts ...ApiOption) (*Api, error) {
	ao := &ApiOptions{
		formats:    DefaultFormats(),
		converters: apierror.NewConverters(),
		pagination: config.Pagination{
			DefaultItemsPerPage: 30,
			MaxItemsPerPage:     100,
		},
		localizer: writer.NewLocalizer(language.English),
		credentials: func(*http.Request) (any, error) {
			return nil, nil
		},
		maxBody:   1 << 20,
		readiness: health.Always,
		liveness:  health.Always,
		log:       apio.Logger("github.com/z5labs/apio/rest"),
	}
	for _, opt := range opts {
		opt.ApplyApiOption(ao)
	}

	negotiator, err := message.NewNegotiator(ao.formats, ao.negotiation...)
	if err != nil {
		return nil, err
	}

	var urls *uri.Creator
	if ao.serverURL != "" {
		c, err := uri.ParseServerURL(ao.serverURL)
		if err != nil {
			return nil, err
		}
		urls = &c
	}

	rendered, err := newRenderedCounter()
	if err != nil {
		return nil, err
	}

	api := &Api{
		router:       chi.NewMux(),
		title:        title,
		version:      version,
		registry:     reg,
		resolver:     resolver.New(reg),
		negotiator:   negotiator,
		converters:   ao.converters,
		localizer:    ao.localizer,
		urls:         urls,
		pagination:   ao.pagination,
		credentials:  ao.credentials,
		maxBodyBytes: ao.maxBody,
		log:          ao.log,
		rendered:     rendered,
	}

	resources := http.HandlerFunc(api.serveResource)
	api.router.Handle("/p/{name}", resources)
	api.router.Handle("/p/{name}/{id}", resources)
	api.router.Handle("/p/{name}/{id}/{sub}", resources)
	api.router.Get("/b/{name}/{id}/{binaryId}", api.serveBinary)
	api.router.Get("/f/{formId}", api.serveForm)
	api.router.Get("/openapi.json", api.serveOpenAPI)
	api.router.Method(http.MethodGet, "/health/liveness", probe(ao.liveness, api.log))
	api.router.Method(http.MethodGet, "/health/readiness", probe(ao.readiness, api.log))
	api.router.NotFound(api.notFound)
	api.router.MethodNotAllowed(api.methodNotAllowed)

	return api, nil
}

// ServeHTTP implements the [http.Handler] interface.
func (api *Api) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	api.router.ServeHTTP(w, req)
}

func (api *Api) notFound(w http.ResponseWriter, r *http.Request) {
	api.writeError(r.Context(), w, r, apierror.NotFoundError{Resource: r.URL.Path})
}

func (api *Api) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	api.writeError(r.Context(), w, r, apierror.MethodNotAllowedError{
		Resource: r.URL.Path,
		Method:   r.Method,
	})
}
