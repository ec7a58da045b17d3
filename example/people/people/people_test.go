// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package people

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/apio/identifier"
	"github.com/z5labs/apio/registry"
	"github.com/z5labs/apio/rest"

	"github.com/stretchr/testify/require"
)

var joined = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

func newApi(t *testing.T, opts ...Option) (*rest.Api, *InMemory) {
	t.Helper()

	store := NewInMemory()
	store.now = func() time.Time { return joined }

	reg := registry.New(identifier.NewRegistry())
	require.NoError(t, Register(reg, store, opts...))

	api, err := rest.NewApi("People", "v0.1.0", reg, rest.Credentials(func(r *http.Request) (any, error) {
		return r.Header.Get("X-User"), nil
	}))
	require.NoError(t, err)
	return api, store
}

func do(api http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), w.Body.String())
	return doc
}

const ada = `{"givenName":"Ada","familyName":"Lovelace","email":"ada@example.com","jobTitle":"Analyst"}`

func TestPeople(t *testing.T) {
	t.Run("will create a person", func(t *testing.T) {
		api, _ := newApi(t)

		w := do(api, http.MethodPost, "/p/people", ada)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.Equal(t, "http://example.com/p/people/1", w.Header().Get("Location"))

		doc := decode(t, w)
		require.Equal(t, "http://example.com/p/people/1", doc["self"])
		require.Equal(t, "Ada", doc["givenName"])
		require.Equal(t, "Lovelace", doc["familyName"])
		require.Equal(t, "2026-03-01T09:30:00Z", doc["joined"])
		require.Equal(t, "http://example.com/b/people/1/avatar", doc["avatar"])
		require.Equal(t, "https://opensource.org/licenses/MIT", doc["license"])
		require.Contains(t, doc["blogPosts"], "/p/people/1/blog-postings")
	})

	t.Run("will greet in the negotiated language", func(t *testing.T) {
		api, _ := newApi(t)
		require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)

		w := do(api, http.MethodGet, "/p/people/1", "", "Accept-Language", "es-MX, en;q=0.5")

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "Hola, Ada", decode(t, w)["greeting"])
	})

	t.Run("will replace a person", func(t *testing.T) {
		api, _ := newApi(t)
		require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)

		w := do(api, http.MethodPut, "/p/people/1", `{"givenName":"Augusta","familyName":"King","email":"augusta@example.com"}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, "Augusta", decode(t, w)["givenName"])
	})

	t.Run("will page through people", func(t *testing.T) {
		api, _ := newApi(t)
		for range 3 {
			require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)
		}

		w := do(api, http.MethodGet, "/p/people?page=2&per_page=2", "")

		require.Equal(t, http.StatusOK, w.Code)
		doc := decode(t, w)
		require.EqualValues(t, 3, doc["totalNumberOfItems"])
		require.EqualValues(t, 1, doc["numberOfItems"])
		require.Len(t, doc["elements"], 1)
	})

	t.Run("will return a bad request", func(t *testing.T) {
		t.Run("if the email is malformed", func(t *testing.T) {
			api, store := newApi(t)

			w := do(api, http.MethodPost, "/p/people", `{"givenName":"Ada","familyName":"Lovelace","email":"nope"}`)

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Empty(t, store.people)
		})
	})

	t.Run("will return not found", func(t *testing.T) {
		t.Run("if the person does not exist", func(t *testing.T) {
			api, _ := newApi(t)

			w := do(api, http.MethodGet, "/p/people/42", "")

			require.Equal(t, http.StatusNotFound, w.Code)
			require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		})

		t.Run("if the person has no avatar", func(t *testing.T) {
			api, _ := newApi(t)
			require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)

			w := do(api, http.MethodGet, "/b/people/1/avatar", "")

			require.Equal(t, http.StatusNotFound, w.Code)
		})
	})

	t.Run("will remove a person", func(t *testing.T) {
		t.Run("if the caller is the admin", func(t *testing.T) {
			api, _ := newApi(t, Admin("grace"))
			require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)

			w := do(api, http.MethodDelete, "/p/people/1", "", "X-User", "grace")
			require.Equal(t, http.StatusNoContent, w.Code)
			require.Empty(t, w.Body.String())

			w = do(api, http.MethodGet, "/p/people/1", "")
			require.Equal(t, http.StatusNotFound, w.Code)
		})
	})

	t.Run("will forbid removing a person", func(t *testing.T) {
		t.Run("if the caller is not the admin", func(t *testing.T) {
			api, store := newApi(t, Admin("grace"))
			require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)

			w := do(api, http.MethodDelete, "/p/people/1", "", "X-User", "ada")

			require.Equal(t, http.StatusForbidden, w.Code)
			require.Len(t, store.people, 1)
		})

		t.Run("if no admin is configured", func(t *testing.T) {
			api, _ := newApi(t)
			require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)

			w := do(api, http.MethodDelete, "/p/people/1", "")

			require.Equal(t, http.StatusForbidden, w.Code)
		})
	})
}

func TestBlogPostings(t *testing.T) {
	published := time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*rest.Api, string) {
		t.Helper()

		api, _ := newApi(t, Clock(func() time.Time { return published }))
		require.Equal(t, http.StatusCreated, do(api, http.MethodPost, "/p/people", ada).Code)

		w := do(api, http.MethodPost, "/p/blog-postings", `{"headline":"Notes","body":"On the engine","author":1}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return api, w.Header().Get("Location")
	}

	t.Run("will link the posting to its author", func(t *testing.T) {
		api, location := setup(t)

		w := do(api, http.MethodGet, location, "")

		require.Equal(t, http.StatusOK, w.Code)
		doc := decode(t, w)
		require.Equal(t, "http://example.com/p/people/1", doc["author"])
		require.Equal(t, false, doc["published"])
	})

	t.Run("will list the postings of an author", func(t *testing.T) {
		api, _ := setup(t)

		w := do(api, http.MethodGet, "/p/people/1/blog-postings", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		doc := decode(t, w)
		require.EqualValues(t, 1, doc["totalNumberOfItems"])
	})

	t.Run("will publish a posting", func(t *testing.T) {
		api, location := setup(t)

		w := do(api, http.MethodPost, location+"/publish", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, true, decode(t, w)["published"])
	})

	t.Run("will return a conflict", func(t *testing.T) {
		t.Run("if the author does not exist", func(t *testing.T) {
			api, _ := newApi(t)

			w := do(api, http.MethodPost, "/p/blog-postings", `{"headline":"Notes","body":"On the engine","author":9}`)

			require.Equal(t, http.StatusConflict, w.Code)
		})
	})

	t.Run("will return not found", func(t *testing.T) {
		t.Run("if the author of a nested listing does not exist", func(t *testing.T) {
			api, _ := newApi(t)

			w := do(api, http.MethodGet, "/p/people/9/blog-postings", "")

			require.Equal(t, http.StatusNotFound, w.Code)
		})
	})
}
