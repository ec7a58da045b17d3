// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writer

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/form"
	"github.com/z5labs/apio/identifier"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/hal"
	"github.com/z5labs/apio/message/jsonld"
	"github.com/z5labs/apio/message/plainjson"
	"github.com/z5labs/apio/message/problemjson"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/representor"
	"github.com/z5labs/apio/resource"
	"github.com/z5labs/apio/uri"
	"golang.org/x/text/language"
)

type mapLookup struct {
	reps    map[string]*representor.Representor
	mappers map[string]identifier.PathMapper
}

func (l mapLookup) Representor(name string) (*representor.Representor, bool) {
	r, ok := l.reps[name]
	return r, ok
}

func (l mapLookup) PathMapper(name string) (identifier.PathMapper, bool) {
	m, ok := l.mappers[name]
	return m, ok
}

type person struct {
	ID        int64
	GivenName string
	Employer  int64
}

type organization struct {
	ID   int64
	Name string
}

var urls = uri.MustParseServerURL("http://localhost:8080")

func build[T any](t *testing.T, b *representor.Builder[T]) *representor.Representor {
	t.Helper()

	r, err := b.Build()
	require.NoError(t, err)
	return r
}

func newLookup(t *testing.T, people *representor.Builder[person]) mapLookup {
	t.Helper()

	orgs := representor.New(func(o organization) int64 { return o.ID }).
		String("name", func(o organization) string { return o.Name })

	return mapLookup{
		reps: map[string]*representor.Representor{
			"people":        build(t, people),
			"organizations": build(t, orgs),
		},
		mappers: map[string]identifier.PathMapper{
			"people":        identifier.Erase[int64](identifier.LongMapper{}),
			"organizations": identifier.Erase[int64](identifier.LongMapper{}),
		},
	}
}

func givenNameOnly() *representor.Builder[person] {
	return representor.New(func(p person) int64 { return p.ID }).
		String("givenName", func(p person) string { return p.GivenName })
}

func withRelations() *representor.Builder[person] {
	return givenNameOnly().
		Types("Person").
		LinkedModel("employer", "organizations", func(p person) any {
			if p.Employer == 0 {
				return nil
			}
			return p.Employer
		}).
		RelatedCollection("blogPosts", "blog-postings")
}

func writeSingle(t *testing.T, l Lookup, m message.SingleModelMapper, s model.Single[any]) string {
	t.Helper()

	w := SingleModelWriter{
		Model:    s,
		Mapper:   m,
		Lookup:   l,
		URLs:     urls,
		Language: language.English,
	}
	doc, ok, err := w.Write()
	require.NoError(t, err)
	require.True(t, ok)
	return doc
}

func TestSingleModelWriter_Write(t *testing.T) {
	ada := model.Single[any]{
		Model:        person{ID: 42, GivenName: "Ada", Employer: 7},
		ResourceName: "people",
	}

	t.Run("will render a plain json model", func(t *testing.T) {
		l := newLookup(t, givenNameOnly())

		doc := writeSingle(t, l, plainjson.SingleModelMapper{}, ada)
		require.Equal(t, `{"self":"http://localhost:8080/p/people/42","givenName":"Ada"}`, doc)
	})

	t.Run("will render links under _links for hal", func(t *testing.T) {
		l := newLookup(t, withRelations())

		doc := writeSingle(t, l, hal.SingleModelMapper{}, ada)
		require.Equal(
			t,
			`{"_links":{"self":{"href":"http://localhost:8080/p/people/42"},"employer":{"href":"http://localhost:8080/p/organizations/7"},"blogPosts":{"href":"http://localhost:8080/p/people/42/blog-postings"}},"givenName":"Ada"}`,
			doc,
		)
	})

	t.Run("will declare links as iris for json-ld", func(t *testing.T) {
		l := newLookup(t, withRelations())

		doc := writeSingle(t, l, jsonld.SingleModelMapper{}, ada)
		require.Equal(
			t,
			`{"@context":{"@vocab":"http://schema.org/","hydra":"https://www.w3.org/ns/hydra/core#","employer":{"@type":"@id"},"blogPosts":{"@type":"@id"}},"@id":"http://localhost:8080/p/people/42","@type":["Person"],"givenName":"Ada","employer":"http://localhost:8080/p/organizations/7","blogPosts":"http://localhost:8080/p/people/42/blog-postings"}`,
			doc,
		)
	})

	t.Run("will omit relations which cannot be resolved", func(t *testing.T) {
		l := newLookup(t, withRelations())
		delete(l.mappers, "organizations")

		doc := writeSingle(t, l, plainjson.SingleModelMapper{}, ada)
		require.Equal(t, `{"self":"http://localhost:8080/p/people/42","givenName":"Ada","blogPosts":"http://localhost:8080/p/people/42/blog-postings"}`, doc)
	})

	t.Run("will omit linked models which are absent", func(t *testing.T) {
		l := newLookup(t, withRelations())

		doc := writeSingle(t, l, plainjson.SingleModelMapper{}, model.Single[any]{
			Model:        person{ID: 1, GivenName: "Grace"},
			ResourceName: "people",
		})
		require.NotContains(t, doc, "employer")
	})

	t.Run("will render fields in declaration order every time", func(t *testing.T) {
		l := newLookup(t, withRelations().
			Boolean("active", func(person) bool { return true }).
			Integer("age", func(person) int64 { return 36 }).
			StringList("nicknames", func(person) []string { return nil }),
		)

		first := writeSingle(t, l, plainjson.SingleModelMapper{}, ada)
		second := writeSingle(t, l, plainjson.SingleModelMapper{}, ada)
		require.Equal(t, first, second)
		require.Equal(
			t,
			`{"self":"http://localhost:8080/p/people/42","givenName":"Ada","active":true,"age":36,"nicknames":[],"employer":"http://localhost:8080/p/organizations/7","blogPosts":"http://localhost:8080/p/people/42/blog-postings"}`,
			first,
		)
	})

	t.Run("will render every field kind", func(t *testing.T) {
		type address struct {
			Street string
		}

		born := time.Date(1815, time.December, 10, 12, 0, 0, 0, time.FixedZone("GMT+1", 3600))
		b := givenNameOnly().
			Date("birthDate", func(person) time.Time { return born }).
			LocalizedString("greeting", func(p person, tag language.Tag) string {
				if tag == language.Spanish {
					return "Hola " + p.GivenName
				}
				return "Hello " + p.GivenName
			}).
			Binary("avatar", func(context.Context, person) (representor.BinaryFile, error) {
				return representor.BinaryFile{}, nil
			}).
			Link("license", "https://creativecommons.org/licenses/by/4.0/").
			RelativeURL("docs", func(person) string { return "/docs/people" }).
			NumberList("scores", func(person) []float64 { return []float64{1.5, 2} })
		representor.Nested(b, "address", func(person) (address, bool) {
			return address{Street: "St James's Square"}, true
		}, func(nb *representor.Builder[address]) {
			nb.String("street", func(a address) string { return a.Street })
		})
		representor.NestedList(b, "previousAddresses", func(person) []address {
			return []address{{Street: "Marylebone"}}
		}, func(nb *representor.Builder[address]) {
			nb.String("street", func(a address) string { return a.Street })
		})
		l := newLookup(t, b)

		w := SingleModelWriter{
			Model:    ada,
			Mapper:   plainjson.SingleModelMapper{},
			Lookup:   l,
			URLs:     urls,
			Language: language.Spanish,
		}
		doc, ok, err := w.Write()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(
			t,
			`{"self":"http://localhost:8080/p/people/42","givenName":"Ada","birthDate":"1815-12-10T11:00:00Z","greeting":"Hola Ada","avatar":"http://localhost:8080/b/people/42/avatar","license":"https://creativecommons.org/licenses/by/4.0/","docs":"http://localhost:8080/docs/people","scores":[1.5,2],"address":{"street":"St James's Square"},"previousAddresses":[{"street":"Marylebone"}]}`,
			doc,
		)
	})

	t.Run("will leave out numbers without a json representation", func(t *testing.T) {
		b := givenNameOnly().
			Number("height", func(person) float64 { return math.NaN() }).
			Number("reach", func(person) float64 { return math.Inf(1) }).
			NumberList("scores", func(person) []float64 { return []float64{1.5, math.NaN(), math.Inf(-1), 2} })
		l := newLookup(t, b)

		w := SingleModelWriter{
			Model:    ada,
			Mapper:   plainjson.SingleModelMapper{},
			Lookup:   l,
			URLs:     urls,
			Language: language.English,
		}
		doc, ok, err := w.Write()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(
			t,
			`{"self":"http://localhost:8080/p/people/42","givenName":"Ada","scores":[1.5,2]}`,
			doc,
		)
	})

	t.Run("will render operations", func(t *testing.T) {
		type personForm struct {
			GivenName string `json:"givenName"`
		}

		l := newLookup(t, givenNameOnly())
		s := ada
		s.Operations = []operation.Operation{
			{Name: "people/replace", Method: http.MethodPut, Form: form.MustNew[personForm]("person-form")},
			{Name: "people/promote", Method: http.MethodPost, Custom: true},
		}

		doc := writeSingle(t, l, jsonld.SingleModelMapper{}, s)

		var v struct {
			Operations []map[string]any `json:"hydra:operation"`
		}
		require.NoError(t, json.Unmarshal([]byte(doc), &v))
		require.Equal(t, []map[string]any{
			{
				"@id":           "_:people/replace",
				"@type":         "hydra:Operation",
				"hydra:method":  "PUT",
				"hydra:target":  "http://localhost:8080/p/people/42",
				"hydra:expects": "http://localhost:8080/f/person-form",
			},
			{
				"@id":          "_:people/promote",
				"@type":        "hydra:Operation",
				"hydra:method": "POST",
				"hydra:target": "http://localhost:8080/p/people/42/promote",
			},
		}, v.Operations)
	})

	t.Run("will report a miss", func(t *testing.T) {
		t.Run("if the resource has no representor", func(t *testing.T) {
			l := newLookup(t, givenNameOnly())

			w := SingleModelWriter{
				Model:  model.Single[any]{Model: ada.Model, ResourceName: "robots"},
				Mapper: plainjson.SingleModelMapper{},
				Lookup: l,
				URLs:   urls,
			}
			doc, ok, err := w.Write()
			require.NoError(t, err)
			require.False(t, ok)
			require.Empty(t, doc)
		})

		t.Run("if the path of the model cannot be resolved", func(t *testing.T) {
			l := newLookup(t, givenNameOnly())
			l.mappers["people"] = identifier.Erase[string](identifier.StringMapper{})

			w := SingleModelWriter{
				Model:  ada,
				Mapper: plainjson.SingleModelMapper{},
				Lookup: l,
				URLs:   urls,
			}
			_, ok, err := w.Write()
			require.NoError(t, err)
			require.False(t, ok)
		})
	})
}

func people(n, firstID int) []any {
	items := make([]any, 0, n)
	for i := range n {
		items = append(items, person{ID: int64(firstID + i), GivenName: "p"})
	}
	return items
}

func TestPageWriter_Write(t *testing.T) {
	type plainPage struct {
		Self       string `json:"self"`
		Collection string `json:"collection"`
		Total      int    `json:"totalNumberOfItems"`
		Count      int    `json:"numberOfItems"`
		Pages      map[string]string
		Elements   []map[string]any
	}

	writePlain := func(t *testing.T, p model.Page[any]) plainPage {
		t.Helper()

		w := PageWriter{
			Page:   p,
			Mapper: plainjson.PageMapper{},
			Lookup: newLookup(t, givenNameOnly()),
			URLs:   urls,
		}
		doc, err := w.Write()
		require.NoError(t, err)

		var v plainPage
		require.NoError(t, json.Unmarshal([]byte(doc), &v))
		return v
	}

	t.Run("will link every page", func(t *testing.T) {
		v := writePlain(t, model.Page[any]{
			ResourceName: "people",
			Items:        people(10, 11),
			ItemsPerPage: 10,
			PageNumber:   2,
			TotalCount:   25,
		})

		require.Equal(t, "http://localhost:8080/p/people?page=2&per_page=10", v.Self)
		require.Equal(t, "http://localhost:8080/p/people", v.Collection)
		require.Equal(t, 25, v.Total)
		require.Equal(t, 10, v.Count)
		require.Equal(t, map[string]string{
			"first": "http://localhost:8080/p/people?page=1&per_page=10",
			"last":  "http://localhost:8080/p/people?page=3&per_page=10",
			"next":  "http://localhost:8080/p/people?page=3&per_page=10",
			"prev":  "http://localhost:8080/p/people?page=1&per_page=10",
		}, v.Pages)
		require.Len(t, v.Elements, 10)
		require.Equal(t, "http://localhost:8080/p/people/11", v.Elements[0]["self"])
	})

	t.Run("will not link past the last page", func(t *testing.T) {
		v := writePlain(t, model.Page[any]{
			ResourceName: "people",
			Items:        people(5, 21),
			ItemsPerPage: 10,
			PageNumber:   3,
			TotalCount:   25,
		})

		require.NotContains(t, v.Pages, "next")
		require.Contains(t, v.Pages, "prev")
	})

	t.Run("will render an empty collection", func(t *testing.T) {
		v := writePlain(t, model.Page[any]{
			ResourceName: "people",
			ItemsPerPage: 10,
			PageNumber:   1,
		})

		require.Equal(t, map[string]string{
			"first": "http://localhost:8080/p/people?page=1&per_page=10",
			"last":  "http://localhost:8080/p/people?page=1&per_page=10",
		}, v.Pages)
		require.NotNil(t, v.Elements)
		require.Empty(t, v.Elements)
	})

	t.Run("will address nested collections through the parent", func(t *testing.T) {
		parent := resource.MustPath("people", "42")
		v := writePlain(t, model.Page[any]{
			ResourceName: "blog-postings",
			ItemsPerPage: 10,
			PageNumber:   1,
			Path:         &parent,
		})

		require.Equal(t, "http://localhost:8080/p/people/42/blog-postings", v.Collection)
		require.Equal(t, "http://localhost:8080/p/people/42/blog-postings?page=1&per_page=10", v.Self)
	})

	t.Run("will embed items under the resource name for hal", func(t *testing.T) {
		w := PageWriter{
			Page: model.Page[any]{
				ResourceName: "people",
				Items:        people(1, 1),
				ItemsPerPage: 30,
				PageNumber:   1,
				TotalCount:   1,
			},
			Mapper: hal.PageMapper{},
			Lookup: newLookup(t, givenNameOnly()),
			URLs:   urls,
		}
		doc, err := w.Write()
		require.NoError(t, err)
		require.Equal(
			t,
			`{"_links":{"collection":{"href":"http://localhost:8080/p/people"},"self":{"href":"http://localhost:8080/p/people?page=1&per_page=30"},"first":{"href":"http://localhost:8080/p/people?page=1&per_page=30"},"last":{"href":"http://localhost:8080/p/people?page=1&per_page=30"}},"total":1,"count":1,"_embedded":{"people":[{"_links":{"self":{"href":"http://localhost:8080/p/people/1"}},"givenName":"p"}]}}`,
			doc,
		)
	})

	t.Run("will render a hydra collection for json-ld", func(t *testing.T) {
		w := PageWriter{
			Page: model.Page[any]{
				ResourceName: "people",
				ItemsPerPage: 10,
				PageNumber:   2,
				TotalCount:   25,
				Operations: []operation.Operation{
					{Name: "people/create", Method: http.MethodPost, Collection: true},
				},
			},
			Mapper: jsonld.PageMapper{},
			Lookup: newLookup(t, givenNameOnly()),
			URLs:   urls,
		}
		doc, err := w.Write()
		require.NoError(t, err)

		var v map[string]any
		require.NoError(t, json.Unmarshal([]byte(doc), &v))
		require.Equal(t, "hydra:Collection", v["@type"])
		require.Equal(t, "http://localhost:8080/p/people", v["@id"])
		require.Equal(t, float64(25), v["hydra:totalItems"])
		require.Equal(t, map[string]any{
			"@type":          "hydra:PartialCollectionView",
			"@id":            "http://localhost:8080/p/people?page=2&per_page=10",
			"hydra:first":    "http://localhost:8080/p/people?page=1&per_page=10",
			"hydra:last":     "http://localhost:8080/p/people?page=3&per_page=10",
			"hydra:next":     "http://localhost:8080/p/people?page=3&per_page=10",
			"hydra:previous": "http://localhost:8080/p/people?page=1&per_page=10",
		}, v["hydra:view"])
		require.Equal(t, []any{
			map[string]any{
				"@id":          "_:people/create",
				"@type":        "hydra:Operation",
				"hydra:method": "POST",
				"hydra:target": "http://localhost:8080/p/people",
			},
		}, v["hydra:operation"])
	})
}

func TestErrorWriter_Write(t *testing.T) {
	notFound := apierror.APIError{
		Title:      "Not Found",
		Type:       "not-found",
		StatusCode: http.StatusNotFound,
	}

	t.Run("will not render a description when absent", func(t *testing.T) {
		mappers := []message.ErrorMapper{
			plainjson.ErrorMapper{},
			hal.ErrorMapper{},
			jsonld.ErrorMapper{},
			problemjson.ErrorMapper{},
		}

		for _, m := range mappers {
			t.Run("for "+m.MediaType(), func(t *testing.T) {
				doc, err := ErrorWriter{Error: notFound, Mapper: m}.Write()
				require.NoError(t, err)

				var v map[string]any
				require.NoError(t, json.Unmarshal([]byte(doc), &v))
				require.NotContains(t, v, "description")
				require.NotContains(t, v, "detail")
				require.Equal(t, "Not Found", v["title"])
				require.Equal(t, "not-found", v["type"])
			})
		}
	})

	t.Run("will render title, description, type and status in order", func(t *testing.T) {
		e := notFound
		e.Description = "people 42 does not exist"

		doc, err := ErrorWriter{Error: e, Mapper: plainjson.ErrorMapper{}}.Write()
		require.NoError(t, err)
		require.Equal(t, `{"title":"Not Found","description":"people 42 does not exist","type":"not-found","status":404}`, doc)

		doc, err = ErrorWriter{Error: e, Mapper: problemjson.ErrorMapper{}}.Write()
		require.NoError(t, err)
		require.Equal(t, `{"title":"Not Found","detail":"people 42 does not exist","type":"not-found","status":404}`, doc)
	})
}
