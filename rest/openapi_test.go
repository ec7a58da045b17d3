// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApi_OpenAPI(t *testing.T) {
	t.Run("will describe every registered route", func(t *testing.T) {
		api := newFixture(t).api(t)

		resp := serve(api, http.MethodGet, "/openapi.json", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var doc struct {
			Info struct {
				Title   string `json:"title"`
				Version string `json:"version"`
			} `json:"info"`
			Paths map[string]map[string]struct {
				OperationID string                     `json:"operationId"`
				Responses   map[string]json.RawMessage `json:"responses"`
				RequestBody json.RawMessage            `json:"requestBody"`
			} `json:"paths"`
		}
		require.NoError(t, json.Unmarshal([]byte(bodyOf(t, resp)), &doc))

		require.Equal(t, "People", doc.Info.Title)
		require.Equal(t, "v1.0.0", doc.Info.Version)

		require.Contains(t, doc.Paths, "/p/people")
		require.Contains(t, doc.Paths["/p/people"], "get")
		require.Contains(t, doc.Paths["/p/people"], "post")
		require.Contains(t, doc.Paths["/p/people"]["post"].Responses, "201")
		require.NotEmpty(t, doc.Paths["/p/people"]["post"].RequestBody)

		require.Contains(t, doc.Paths, "/p/people/{id}")
		require.Contains(t, doc.Paths["/p/people/{id}"], "get")
		require.Contains(t, doc.Paths["/p/people/{id}"]["delete"].Responses, "204")

		require.Contains(t, doc.Paths, "/p/people/{id}/blog-postings")
		require.Equal(t, "blog-postings/retrieve-by-people", doc.Paths["/p/people/{id}/blog-postings"]["get"].OperationID)

		require.Contains(t, doc.Paths, "/b/people/{id}/avatar")
		require.Contains(t, doc.Paths, "/f/person-form")
	})
}
