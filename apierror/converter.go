// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/z5labs/apio/concurrent"
)

// Converter turns an error of a specific dynamic type into an [APIError].
type Converter interface {
	Convert(error) APIError
}

// ConverterFunc is a function adapter that implements [Converter].
type ConverterFunc func(error) APIError

// Convert implements the [Converter] interface.
func (f ConverterFunc) Convert(err error) APIError {
	return f(err)
}

// DuplicateConverterError is returned when a converter is registered twice
// for the same error type.
type DuplicateConverterError struct {
	Type reflect.Type
}

func (e DuplicateConverterError) Error() string {
	return fmt.Sprintf("converter already registered for error type: %s", e.Type)
}

// ConvertersOptions holds configuration for [NewConverters].
type ConvertersOptions struct {
	typePrefix string
}

// ConvertersOption configures [NewConverters].
type ConvertersOption func(*ConvertersOptions)

// WithTypePrefix prefixes every built-in error type, e.g.
// "https://api.example.com/problems/" turns "not-found" into
// "https://api.example.com/problems/not-found".
func WithTypePrefix(prefix string) ConvertersOption {
	return func(co *ConvertersOptions) {
		co.typePrefix = prefix
	}
}

// Converters is a registry of error type → [Converter]. Registration is
// expected at startup but is safe for concurrent use with [Converters.Convert].
type Converters struct {
	byType   concurrent.Snapshot[reflect.Type, Converter]
	fallback Converter
}

// NewConverters returns a registry which already knows the error taxonomy
// of this module: [BadRequestError], [NotFoundError], [MethodNotAllowedError],
// [ForbiddenError], [ConflictError] and [InternalServerError].
func NewConverters(opts ...ConvertersOption) *Converters {
	co := &ConvertersOptions{}
	for _, opt := range opts {
		opt(co)
	}
	typ := func(s string) string {
		return co.typePrefix + s
	}

	c := &Converters{
		fallback: ConverterFunc(func(err error) APIError {
			return APIError{
				Err:        err,
				Title:      "Internal Server Error",
				Type:       typ("internal-server-error"),
				StatusCode: http.StatusInternalServerError,
			}
		}),
	}

	mustRegister(c, func(e BadRequestError) APIError {
		return APIError{
			Err:         e,
			Title:       "Bad Request",
			Description: causeMessage(e.Cause),
			Type:        typ("bad-request"),
			StatusCode:  http.StatusBadRequest,
		}
	})
	mustRegister(c, func(e NotFoundError) APIError {
		return APIError{
			Err:        e,
			Title:      "Not Found",
			Type:       typ("not-found"),
			StatusCode: http.StatusNotFound,
		}
	})
	mustRegister(c, func(e MethodNotAllowedError) APIError {
		return APIError{
			Err:         e,
			Title:       "Method Not Allowed",
			Description: e.Error(),
			Type:        typ("method-not-allowed"),
			StatusCode:  http.StatusMethodNotAllowed,
		}
	})
	mustRegister(c, func(e ForbiddenError) APIError {
		return APIError{
			Err:        e,
			Title:      "Forbidden",
			Type:       typ("forbidden"),
			StatusCode: http.StatusForbidden,
		}
	})
	mustRegister(c, func(e ConflictError) APIError {
		return APIError{
			Err:         e,
			Title:       "Conflict",
			Description: causeMessage(e.Cause),
			Type:        typ("conflict"),
			StatusCode:  http.StatusConflict,
		}
	})
	mustRegister(c, func(e InternalServerError) APIError {
		return c.fallback.Convert(e)
	})

	return c
}

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func mustRegister[E error](c *Converters, f func(E) APIError) {
	err := Register(c, f)
	if err != nil {
		panic(err)
	}
}

// Register adds a converter for errors whose dynamic type is exactly E.
// Registering a second converter for the same type is a configuration error.
func Register[E error](c *Converters, f func(E) APIError) error {
	t := reflect.TypeFor[E]()
	conv := ConverterFunc(func(err error) APIError {
		return f(err.(E))
	})
	if !c.byType.StoreIfAbsent(t, conv) {
		return DuplicateConverterError{Type: t}
	}
	return nil
}

// Convert normalizes err. The wrap chain is walked depth first, outermost
// error first, following both Unwrap() error and Unwrap() []error. The first
// error which is an [APIError], embeds a [ProblemDetail] or has a registered
// converter decides the result. Otherwise the generic internal server error
// converter is used.
func (c *Converters) Convert(err error) APIError {
	apiErr, ok := c.convert(err)
	if ok {
		return apiErr
	}
	return c.fallback.Convert(err)
}

func (c *Converters) convert(err error) (APIError, bool) {
	if err == nil {
		return APIError{}, false
	}

	switch e := err.(type) {
	case APIError:
		return e, true
	case problemDetailer:
		pd := e.problemDetail()
		return APIError{
			Err:         err,
			Title:       pd.Title,
			Description: pd.Detail,
			Type:        pd.Type,
			StatusCode:  pd.Status,
		}, true
	}

	conv, ok := c.byType.Load(reflect.TypeOf(err))
	if ok {
		return conv.Convert(err), true
	}

	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return c.convert(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			apiErr, ok := c.convert(inner)
			if ok {
				return apiErr, true
			}
		}
	}
	return APIError{}, false
}

// IsClientError reports whether err converts to a 4xx status using the
// built-in taxonomy. It is a convenience for logging decisions.
func IsClientError(err error) bool {
	var (
		badRequest BadRequestError
		notFound   NotFoundError
		notAllowed MethodNotAllowedError
		forbidden  ForbiddenError
		conflict   ConflictError
	)
	return errors.As(err, &badRequest) ||
		errors.As(err, &notFound) ||
		errors.As(err, &notAllowed) ||
		errors.As(err, &forbidden) ||
		errors.As(err, &conflict)
}
