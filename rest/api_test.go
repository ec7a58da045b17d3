// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/z5labs/apio/form"
	"github.com/z5labs/apio/health"
	"github.com/z5labs/apio/identifier"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/registry"
	"github.com/z5labs/apio/representor"
	"github.com/z5labs/apio/routes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	ID        int64
	GivenName string
}

type personForm struct {
	GivenName string `json:"givenName" required:"true"`
}

type post struct {
	ID     string
	Author int64
}

func adminOnly(_ context.Context, c operation.Check) (bool, error) {
	return c.Credentials == "admin", nil
}

func userHeader(r *http.Request) (any, error) {
	return r.Header.Get("X-User"), nil
}

type fixture struct {
	reg     *registry.Registry
	invoked atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		reg: registry.New(identifier.NewRegistry()),
	}

	personRep, err := representor.New(func(p person) int64 { return p.ID }).
		String("givenName", func(p person) string { return p.GivenName }).
		Binary("avatar", func(_ context.Context, p person) (representor.BinaryFile, error) {
			if p.ID == 7 {
				return representor.BinaryFile{}, nil
			}
			return representor.BinaryFile{
				Content:     io.NopCloser(strings.NewReader("png")),
				ContentType: "image/png",
				Size:        3,
			}, nil
		}).
		Build()
	require.NoError(t, err)

	pb := routes.New[person, int64]("people")
	pb.RetrievePage(func(_ context.Context, req routes.Request) (model.Items[person], error) {
		f.invoked.Add(1)
		return model.Items[person]{
			Items:      []person{{ID: 1, GivenName: "Ada"}},
			TotalCount: 25,
		}, nil
	}).
		Retrieve(func(_ context.Context, _ routes.Request, id int64) (person, error) {
			f.invoked.Add(1)
			if id == 13 {
				panic("unlucky")
			}
			return person{ID: id, GivenName: "Ada"}, nil
		}).
		Remove(func(context.Context, routes.Request, int64) error {
			f.invoked.Add(1)
			return nil
		}, routes.WithPermission(adminOnly))
	routes.Create(pb, form.MustNew[personForm]("person-form"), func(_ context.Context, _ routes.Request, body personForm) (person, error) {
		f.invoked.Add(1)
		return person{ID: 99, GivenName: body.GivenName}, nil
	}, routes.WithPermission(adminOnly))
	peopleSet, err := pb.Build()
	require.NoError(t, err)
	require.NoError(t, f.reg.Register(personRep, peopleSet))

	postRep, err := representor.New(func(p post) string { return p.ID }).
		LinkedModel("author", "people", func(p post) any { return p.Author }).
		Build()
	require.NoError(t, err)

	postRoutes := routes.New[post, string]("blog-postings")
	routes.RetrieveNested(postRoutes, "people", func(_ context.Context, req routes.Request, author int64) (model.Items[post], error) {
		return model.Items[post]{
			Items:      []post{{ID: "a", Author: author}},
			TotalCount: 1,
		}, nil
	})
	postSet, err := postRoutes.Build()
	require.NoError(t, err)
	require.NoError(t, f.reg.Register(postRep, postSet))

	return f
}

func (f *fixture) api(t *testing.T, opts ...ApiOption) *Api {
	t.Helper()

	opts = append([]ApiOption{Credentials(userHeader)}, opts...)
	api, err := NewApi("People", "v1.0.0", f.reg, opts...)
	require.NoError(t, err)
	return api
}

func serve(api http.Handler, method, target, body string, headers map[string]string) *http.Response {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)
	return w.Result()
}

func bodyOf(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestApi_Single(t *testing.T) {
	t.Run("will render the item as plain json", func(t *testing.T) {
		t.Run("if the client accepts anything", func(t *testing.T) {
			api := newFixture(t).api(t)

			for _, accept := range []string{"", "*/*", "application/*", "application/json"} {
				resp := serve(api, http.MethodGet, "/p/people/42", "", map[string]string{"Accept": accept})

				require.Equal(t, http.StatusOK, resp.StatusCode, accept)
				require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
				require.Equal(t, "en", resp.Header.Get("Content-Language"))
				require.Equal(
					t,
					`{"self":"http://example.com/p/people/42","givenName":"Ada","avatar":"http://example.com/b/people/42/avatar"}`,
					bodyOf(t, resp),
				)
			}
		})
	})

	t.Run("will render the item as hal", func(t *testing.T) {
		t.Run("if the client prefers it", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/p/people/42", "", map[string]string{
				"Accept": "application/json;q=0.5, application/hal+json",
			})

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, "application/hal+json", resp.Header.Get("Content-Type"))

			var doc map[string]any
			require.NoError(t, json.Unmarshal([]byte(bodyOf(t, resp)), &doc))
			require.Contains(t, doc, "_links")
		})
	})

	t.Run("will use the configured server url", func(t *testing.T) {
		api := newFixture(t).api(t, ServerURL("https://api.example.com/"))

		resp := serve(api, http.MethodGet, "/p/people/42", "", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, bodyOf(t, resp), `"self":"https://api.example.com/p/people/42"`)
	})

	t.Run("will link related models", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodGet, "/p/people/42/blog-postings", "", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := bodyOf(t, resp)
		require.Contains(t, body, `"collection":"http://example.com/p/people/42/blog-postings"`)
		require.Contains(t, body, `"author":"http://example.com/p/people/42"`)
	})
}

func TestApi_Page(t *testing.T) {
	t.Run("will render page links", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodGet, "/p/people?page=2&per_page=10", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var doc struct {
			Collection string            `json:"collection"`
			Self       string            `json:"self"`
			Pages      map[string]string `json:"pages"`
			Total      int               `json:"totalNumberOfItems"`
			Count      int               `json:"numberOfItems"`
			Elements   []map[string]any  `json:"elements"`
		}
		require.NoError(t, json.Unmarshal([]byte(bodyOf(t, resp)), &doc))

		require.Equal(t, "http://example.com/p/people", doc.Collection)
		require.Equal(t, "http://example.com/p/people?page=2&per_page=10", doc.Self)
		require.Equal(t, "http://example.com/p/people?page=3&per_page=10", doc.Pages["next"])
		require.Equal(t, "http://example.com/p/people?page=1&per_page=10", doc.Pages["prev"])
		require.Equal(t, "http://example.com/p/people?page=3&per_page=10", doc.Pages["last"])
		require.Equal(t, 25, doc.Total)
		require.Equal(t, 1, doc.Count)
		require.Len(t, doc.Elements, 1)
	})

	t.Run("will use the default page size", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodGet, "/p/people", "", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, bodyOf(t, resp), `"self":"http://example.com/p/people?page=1&per_page=30"`)
	})

	t.Run("will return a bad request", func(t *testing.T) {
		for _, query := range []string{"page=0", "page=abc", "per_page=101", "per_page=0"} {
			t.Run("if the query is "+query, func(t *testing.T) {
				f := newFixture(t)
				api := f.api(t)

				resp := serve(api, http.MethodGet, "/p/people?"+query, "", nil)

				require.Equal(t, http.StatusBadRequest, resp.StatusCode)
				require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
				require.Zero(t, f.invoked.Load())
			})
		}
	})
}

func TestApi_Operations(t *testing.T) {
	t.Run("will create an item", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodPost, "/p/people", `{"givenName":"Grace"}`, map[string]string{"X-User": "admin"})

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.Equal(t, "http://example.com/p/people/99", resp.Header.Get("Location"))
		require.Contains(t, bodyOf(t, resp), `"givenName":"Grace"`)
	})

	t.Run("will reject an invalid body", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodPost, "/p/people", `{}`, map[string]string{"X-User": "admin"})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("will delete an item", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodDelete, "/p/people/42", "", map[string]string{"X-User": "admin"})

		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Empty(t, bodyOf(t, resp))
	})

	t.Run("will return forbidden", func(t *testing.T) {
		t.Run("without invoking the handler", func(t *testing.T) {
			f := newFixture(t)
			api := f.api(t)

			resp := serve(api, http.MethodDelete, "/p/people/42", "", map[string]string{"X-User": "guest"})

			require.Equal(t, http.StatusForbidden, resp.StatusCode)
			require.Equal(t, `{"title":"Forbidden","type":"forbidden","status":403}`, bodyOf(t, resp))
			require.Zero(t, f.invoked.Load())
		})
	})

	t.Run("will return method not allowed", func(t *testing.T) {
		t.Run("if the resource has no such route", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodPut, "/p/people", "", nil)

			require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		})
	})
}

func TestApi_Errors(t *testing.T) {
	t.Run("will return not acceptable", func(t *testing.T) {
		t.Run("without invoking the handler", func(t *testing.T) {
			f := newFixture(t)
			api := f.api(t)

			resp := serve(api, http.MethodGet, "/p/people/42", "", map[string]string{"Accept": "text/html"})

			require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
			require.Empty(t, bodyOf(t, resp))
			require.Zero(t, f.invoked.Load())
		})
	})

	t.Run("will return not found", func(t *testing.T) {
		t.Run("if the resource is not registered", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/p/unknown/42", "", nil)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
			require.Equal(t, `{"title":"Not Found","type":"not-found","status":404}`, bodyOf(t, resp))
		})

		t.Run("if no route matches", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/unknown", "", nil)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})

	t.Run("will render the error in the accepted format", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodGet, "/p/unknown/42", "", map[string]string{"Accept": "application/json"})

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.Equal(t, `{"title":"Not Found","type":"not-found","status":404}`, bodyOf(t, resp))
	})

	t.Run("will return a bad request", func(t *testing.T) {
		t.Run("if the id is malformed", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/p/people/abc", "", nil)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Contains(t, bodyOf(t, resp), `"title":"Bad Request"`)
		})
	})

	t.Run("will return an internal server error", func(t *testing.T) {
		t.Run("if the handler panics", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/p/people/13", "", nil)

			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		})

		t.Run("if the credentials cannot be extracted", func(t *testing.T) {
			api := newFixture(t).api(t, Credentials(func(*http.Request) (any, error) {
				return nil, errors.New("token store unavailable")
			}))

			resp := serve(api, http.MethodGet, "/p/people/42", "", nil)

			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		})
	})
}

func TestNewApi(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the server url is malformed", func(t *testing.T) {
			_, err := NewApi("People", "v1.0.0", newFixture(t).reg, ServerURL("ftp://example.com"))

			require.Error(t, err)
		})

		t.Run("if the fallback media type is not supported", func(t *testing.T) {
			_, err := NewApi("People", "v1.0.0", newFixture(t).reg, ServerURL("http://example.com"), Formats())

			require.Error(t, err)
		})
	})
}

func TestApi_Binary(t *testing.T) {
	t.Run("will stream the payload", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodGet, "/b/people/42/avatar", "", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		require.Equal(t, "png", bodyOf(t, resp))
	})

	t.Run("will return not found", func(t *testing.T) {
		t.Run("if the binary is not declared", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/b/people/42/banner", "", nil)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})

		t.Run("if the model has no payload", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/b/people/7/avatar", "", nil)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})
}

func TestApi_Form(t *testing.T) {
	t.Run("will serve the form schema", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodGet, "/f/person-form", "", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/schema+json", resp.Header.Get("Content-Type"))

		var schema map[string]any
		require.NoError(t, json.Unmarshal([]byte(bodyOf(t, resp)), &schema))
		require.Equal(t, []any{"givenName"}, schema["required"])
	})

	t.Run("will return not found", func(t *testing.T) {
		t.Run("if the form is unknown", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/f/unknown-form", "", nil)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})
}

func TestApi_Health(t *testing.T) {
	t.Run("will return http 200 status code", func(t *testing.T) {
		t.Run("if the monitor is healthy", func(t *testing.T) {
			api := newFixture(t).api(t)

			for _, path := range []string{"/health/liveness", "/health/readiness"} {
				resp := serve(api, http.MethodGet, path, "", nil)

				if !assert.Equal(t, http.StatusOK, resp.StatusCode, path) {
					return
				}
			}
		})
	})

	t.Run("will return http 503 status code", func(t *testing.T) {
		t.Run("if the monitor is unhealthy", func(t *testing.T) {
			var ready health.Binary
			api := newFixture(t).api(t, Readiness(&ready))

			resp := serve(api, http.MethodGet, "/health/readiness", "", nil)
			if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
				return
			}

			ready.MarkHealthy()

			resp = serve(api, http.MethodGet, "/health/readiness", "", nil)
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
		})

		t.Run("if the monitor fails", func(t *testing.T) {
			api := newFixture(t).api(t, Liveness(health.MonitorFunc(func(context.Context) (bool, error) {
				return true, errors.New("check failed")
			})))

			resp := serve(api, http.MethodGet, "/health/liveness", "", nil)
			if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
				return
			}
		})
	})
}

func TestApi_RequestBounds(t *testing.T) {
	t.Run("will return a bad request", func(t *testing.T) {
		t.Run("if the body is larger than allowed", func(t *testing.T) {
			f := newFixture(t)
			api := f.api(t, MaxBodyBytes(16))

			body := `{"givenName":"` + strings.Repeat("a", 64) + `"}`
			resp := serve(api, http.MethodPost, "/p/people", body, map[string]string{"X-User": "admin"})

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Zero(t, f.invoked.Load())
		})

		t.Run("if the page offset does not fit an int", func(t *testing.T) {
			f := newFixture(t)
			api := f.api(t)

			resp := serve(api, http.MethodGet, "/p/people?page=9223372036854775807", "", nil)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Zero(t, f.invoked.Load())
		})
	})

	t.Run("will not read the body", func(t *testing.T) {
		t.Run("if the method does not carry one", func(t *testing.T) {
			api := newFixture(t).api(t, MaxBodyBytes(16))

			resp := serve(api, http.MethodGet, "/p/people/42", strings.Repeat("a", 1024), nil)

			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	})

	t.Run("will ignore pagination parameters", func(t *testing.T) {
		t.Run("if the request addresses a single item", func(t *testing.T) {
			api := newFixture(t).api(t)

			resp := serve(api, http.MethodGet, "/p/people/42?page=0&per_page=oops", "", nil)

			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	})
}
